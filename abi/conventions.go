package abi

import (
	"github.com/wippyai/tailcall-stress/types"
)

const (
	sysvIntRegs  = 6 // rdi, rsi, rdx, rcx, r8, r9
	sysvSSERegs  = 8 // xmm0-xmm7
	arm64GPRs    = 8 // x0-x7
	arm64FPRs    = 8 // v0-v7
	win64Slot    = 8
	win64MinArgs = 4 // home area for rcx, rdx, r8, r9
)

func win86Area(params []*types.ValueType) uint32 {
	var area uint32
	for _, p := range params {
		area += types.RoundUp(p.Size, 4)
	}
	return area
}

func win64Area(params []*types.ValueType) uint32 {
	n := len(params)
	if n < win64MinArgs {
		n = win64MinArgs
	}
	return uint32(n) * win64Slot
}

type sysvClass uint8

const (
	classInteger sysvClass = iota
	classSSE
)

// eightbytes classifies an aggregate of at most 16 bytes. An eightbyte is
// SSE only when every field overlapping it is a float.
func eightbytes(t *types.ValueType) []sysvClass {
	n := types.RoundUp(t.Size, 8) / 8
	classes := make([]sysvClass, n)
	for i := range classes {
		classes[i] = classSSE
	}
	for _, f := range t.Fields {
		if !f.Type.Kind.IsFloat() {
			classes[f.Offset/8] = classInteger
		}
	}
	return classes
}

func sysv64Area(params []*types.ValueType) uint32 {
	ints, sses := sysvIntRegs, sysvSSERegs
	var area uint32
	for _, p := range params {
		switch {
		case p.Kind == types.KindStruct:
			if p.Size > 16 {
				area += types.RoundUp(p.Size, 8)
				continue
			}
			needInt, needSSE := 0, 0
			for _, c := range eightbytes(p) {
				if c == classSSE {
					needSSE++
				} else {
					needInt++
				}
			}
			if needInt <= ints && needSSE <= sses {
				ints -= needInt
				sses -= needSSE
			} else {
				area += types.RoundUp(p.Size, 8)
			}
		case p.Kind.IsFloat() || p.Kind == types.KindV128:
			if sses > 0 {
				sses--
			} else {
				area += types.RoundUp(p.Size, 8)
			}
		default:
			if ints > 0 {
				ints--
			} else {
				area += 8
			}
		}
	}
	return area
}

func arm64Area(params []*types.ValueType) uint32 {
	gprs, fprs := arm64GPRs, arm64FPRs
	var area uint32
	for _, p := range params {
		if _, n, ok := p.HFA(); ok {
			if n <= fprs {
				fprs -= n
			} else {
				fprs = 0
				area += types.RoundUp(p.Size, 8)
			}
			continue
		}
		switch {
		case p.Kind.IsFloat() || p.Kind == types.KindV128:
			if fprs > 0 {
				fprs--
			} else {
				area += types.RoundUp(p.Size, 8)
			}
		case p.Kind == types.KindStruct && p.Size > 16:
			// Passed by reference: one pointer.
			if gprs > 0 {
				gprs--
			} else {
				area += 8
			}
		case p.Kind == types.KindStruct:
			need := int(types.RoundUp(p.Size, 8) / 8)
			if need <= gprs {
				gprs -= need
			} else {
				gprs = 0
				area += types.RoundUp(p.Size, 8)
			}
		default:
			if gprs > 0 {
				gprs--
			} else {
				area += 8
			}
		}
	}
	return area
}
