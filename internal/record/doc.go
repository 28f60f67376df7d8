// Package record normalizes the loosely-typed JSON payloads returned by the
// Elsa workflow API into flat records with alias-based field access.
//
// The API is schema-flexible: the same logical field may appear as
// "activityNodeId" or "ActivityNodeId", list endpoints may return either a
// bare array or an envelope object, and any field may be missing. Every
// accessor in this package tolerates all of that and never fails.
//
// Key constraints:
//   - Aliases resolve in declaration order, first present value wins
//   - A key present with a JSON null counts as absent
//   - Only Decode returns an error; everything else degrades to a default
package record
