// Package graph reconstructs a best-effort causal execution graph from
// activity execution summaries.
//
// The Elsa API reports no parent/child or causal-link field, only start and
// completion instants per activity node. Build orders the nodes by time and
// links each node to the earlier node whose completion lies closest before
// its start, tagging every inferred edge with a confidence level so callers
// can tell evidence-backed links from positional guesses.
//
// # Ordering
//
// A node's effective instant is its start, else its completion. A node with
// neither gets a synthetic key: the latest real instant seen earlier in the
// summaries list, placed strictly after every real node at that instant.
// Untimed nodes that precede every timed node sort first. Remaining ties break
// by original position, so the order is total and reproducible.
//
// # Confidence
//
//   - high: a predecessor with a minimal non-negative gap was found
//   - unknown: the node has an instant but no earlier node qualified
//   - low: the node has no instant at all
//
// In the last two cases the predecessor is the immediately preceding node in
// sort order.
//
// Build is a pure function: identical input yields identical nodes, edges
// and edge ids.
package graph
