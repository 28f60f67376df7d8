// Package trace joins the fetched Elsa payloads of one workflow instance
// into a reconstructed trace and owns the interactive selection state.
//
// The flow for one instance is:
//
//  1. Fetch issues the five per-instance reads concurrently; each read is
//     isolated in its own Panel so one failure never blanks the others
//  2. Reconstruct waits on the summaries/report join, builds the graph,
//     then decorates the journal with it
//  3. Resolver answers node selections with an on-demand execution history
//     fetch, collapsing concurrent requests for the same node
//
// # Critical Patterns
//
// Pure reconstruction: Reconstruct has no hidden state. The same payloads
// always produce the same graph, timeline and Fingerprint.
//
// Stale-response suppression: Session stamps every load with the generation
// current at issue time. A result that comes back after another instance was
// opened is discarded with ErrSuperseded.
//
// Error isolation: only Source reads fail. Their errors are kept per panel
// and summarised as the first failure in the fixed order instance, journal,
// summaries, report, execution state.
package trace
