// Package pool holds the callees a trial can tail call into.
//
// Every entry gets a random parameter list at construction, drawn from a
// PCG generator keyed by the pool seed and the entry index, and its stack
// footprint is computed right away. No code exists until an entry is first
// chosen: Materialize emits a module whose only routine folds all its
// flattened parameter words into one i64 (types.Fold is the Go reference)
// and loads it into the engine.
package pool
