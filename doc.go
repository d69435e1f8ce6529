// Package tailstress is a differential stress tester for WebAssembly tail
// calls on wazero.
//
// Every trial generates a caller and a callee with random parameter lists
// drawn from a catalog of scalars, vectors and small aggregates chosen to
// stress native calling conventions. The caller ends in return_call; its
// result is compared with a direct call of the callee on the same values.
// The engine reports, per call site, whether return_call became a real tail
// call and why not.
//
// # Architecture Overview
//
//	tailstress/
//	├── errors/          Structured errors with phase and kind
//	├── wasm/            Core wasm module model, encoder and decoder
//	├── types/           Value-type catalog, layout, values and fold hash
//	├── abi/             Calling-convention models and stack-area estimates
//	├── expr/            Argument expressions: forward, project, literal
//	├── engine/          wazero runtime, tail-call analysis, diagnostics
//	├── pool/            Pre-declared callees with lazy materialization
//	├── oracle/          Trial generation and differential execution
//	├── diag/            Tail-call decision counters and breakdown
//	├── corpus/          SQLite store of mismatching trials
//	├── stress/          Run configuration, loop and summary
//	└── cmd/tailstress/  Command-line front end
//
// # Trial Flow
//
//  1. Trial i seeds a generator and draws the caller's parameters
//  2. The ABI model estimates the caller's incoming stack area
//  3. A callee with a strictly smaller area is picked from the pool
//  4. Each callee argument is forwarded, projected or synthesized
//  5. The caller module is emitted, loaded and invoked
//  6. The callee is invoked directly with the expected arguments
//  7. Results are compared; mismatches are counted and recorded
//
// # Tail-Call Acceptance
//
// The wazero compiler lowers return_call to a real tail call only when every
// callee argument travels in registers. The interpreter never tail calls
// into imported functions. See the engine package for the exact rules.
package tailstress
