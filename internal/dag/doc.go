// Package dag selects web resource archives from a resolved dependency tree.
//
// It is intentionally split into:
//   - Validation (Validate): rejects malformed trees before any work is done
//   - Selection (Collect): a pure post-order walk producing the ordered,
//     deduplicated list of WRA nodes
//
// Neither performs I/O. Non-fatal findings (version conflicts, duplicates)
// are reported to a trace.Sink supplied by the caller.
package dag
