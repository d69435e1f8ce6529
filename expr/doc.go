// Package expr describes how a generated caller produces each argument it
// passes to its callee.
//
// Three forms exist: ArgRef forwards a caller parameter, FieldProj takes one
// field of an aggregate parameter, and Literal is a constant. Every form
// evaluates against concrete caller arguments (Get) and emits the wasm
// instructions computing the same value (Emit):
//
//	scope := expr.NewScope(callerParams)
//	e := expr.Resolve(types.S32, callerParams, rng)
//	code = e.Emit(scope, code)
//	inner := e.Get(outerArgs)
package expr
