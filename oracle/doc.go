// Package oracle runs differential tail-call trials.
//
// Trial i is derived from a PCG generator seeded with the base seed plus i.
// The caller gets a random parameter list like any callee; only callees
// whose stack footprint is strictly smaller than the caller's are
// candidates, and with none the trial is skipped. For each callee
// parameter the caller forwards a parameter of the same type, projects a
// field of an aggregate parameter, or falls back to a literal.
//
// Running a trial loads the caller as module tailcaller_<i>, invokes it
// (a tail call into the callee) and invokes the callee directly with the
// values the caller should have passed. Different results are a Mismatch.
package oracle
