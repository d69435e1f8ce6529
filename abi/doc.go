// Package abi models how native calling conventions place arguments, to
// estimate the stack argument area of a parameter list.
//
// Four conventions are modeled:
//
//	Win86   windows/386      all arguments on the stack, 4-byte rounding
//	Win64   windows/amd64    one 8-byte slot per argument, 32-byte minimum
//	SysV64  other amd64      6 integer + 8 SSE registers, eightbyte classes
//	Arm64   any arm64        8 general + 8 FP registers, HFA aware
//
// The estimate is an approximation: it only needs to order parameter lists
// so that a tail call is attempted when the callee's outgoing area fits in
// the caller's incoming area.
//
//	contract, err := abi.Detect()
//	area := contract.ApproximateStackArea(params)
package abi
