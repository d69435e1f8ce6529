package engine

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/tailcall-stress/wasm"
)

// importedCallee builds a module whose function 0 is an import taking
// params and whose function 1 tail calls it.
func importedCallee(params ...wasm.ValType) *wasm.Module {
	m := &wasm.Module{}
	callee := m.AddType(wasm.FuncType{Params: params, Results: []wasm.ValType{wasm.ValI64}})
	caller := m.AddType(wasm.FuncType{Results: []wasm.ValType{wasm.ValI64}})
	m.Imports = []wasm.Import{{
		Module: "tailcallee_0",
		Name:   "tailcallee_0",
		Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: callee},
	}}
	m.Funcs = []uint32{caller}
	m.Exports = []wasm.Export{{Name: "tailcaller_0", Kind: wasm.KindFunc, Idx: 1}}

	var code []wasm.Instruction
	for _, p := range params {
		switch p {
		case wasm.ValI32:
			code = append(code, wasm.I32Const(1))
		case wasm.ValI64:
			code = append(code, wasm.I64Const(1))
		case wasm.ValF32:
			code = append(code, wasm.F32Const(0))
		case wasm.ValF64:
			code = append(code, wasm.F64Const(0))
		case wasm.ValV128:
			code = append(code, wasm.V128Const(0, 0))
		}
	}
	code = append(code, wasm.ReturnCall(0), wasm.End())
	m.Code = []wasm.FuncBody{{Code: wasm.EncodeInstructions(code)}}
	return m
}

func repeat(t wasm.ValType, n int) []wasm.ValType {
	out := make([]wasm.ValType, n)
	for i := range out {
		out[i] = t
	}
	return out
}

func TestLoweringDecide(t *testing.T) {
	tests := []struct {
		name     string
		params   []wasm.ValType
		kind     Kind
		goarch   string
		disabled bool
		accept   bool
		reason   string
	}{
		{"amd64 no params", nil, KindCompiler, "amd64", false, true, ""},
		{"amd64 int regs full", repeat(wasm.ValI64, 7), KindCompiler, "amd64", false, true, ""},
		{"amd64 int spill", repeat(wasm.ValI32, 8), KindCompiler, "amd64", false, false, "1 integer argument(s)"},
		{"arm64 int regs full", repeat(wasm.ValI64, 6), KindCompiler, "arm64", false, true, ""},
		{"arm64 int spill", repeat(wasm.ValI64, 9), KindCompiler, "arm64", false, false, "3 integer argument(s)"},
		{"float regs full", repeat(wasm.ValF64, 8), KindCompiler, "amd64", false, true, ""},
		{"float spill", repeat(wasm.ValF32, 9), KindCompiler, "arm64", false, false, "1 float/vector argument(s)"},
		{"vector counts as float", append(repeat(wasm.ValV128, 5), repeat(wasm.ValF64, 4)...), KindCompiler, "amd64", false, false, "1 float/vector"},
		{"interpreter import", []wasm.ValType{wasm.ValI32}, KindInterpreter, "amd64", false, false, ReasonImportedTarget},
		{"disabled", nil, KindCompiler, "amd64", true, false, ReasonDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLowering(tt.kind, tt.goarch, tt.disabled)
			ok, reason := l.decide(importedCallee(tt.params...), 0)
			if ok != tt.accept {
				t.Errorf("accepted = %v, want %v (reason %q)", ok, tt.accept, reason)
			}
			if !strings.Contains(reason, tt.reason) {
				t.Errorf("reason = %q, want it to contain %q", reason, tt.reason)
			}
			if tt.accept && reason != "" {
				t.Errorf("accepted site carries reason %q", reason)
			}
		})
	}
}

func TestLoweringInterpreterLocalTarget(t *testing.T) {
	m := importedCallee()
	m.Imports = nil
	l := newLowering(KindInterpreter, "amd64", false)
	// function 0 is now the local caller itself
	if ok, reason := l.decide(m, 0); !ok {
		t.Errorf("local target rejected: %s", reason)
	}
}

func TestAnalyze(t *testing.T) {
	m := importedCallee(repeat(wasm.ValI64, 10)...)
	l := newLowering(KindCompiler, "amd64", false)
	sites, err := l.analyze(m, "tailcaller_0")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := []Site{{
		Routine:  "tailcaller_0",
		Target:   "tailcallee_0.tailcallee_0",
		Reason:   "callee passes 3 integer argument(s) on the stack",
		Func:     1,
		TargetFn: 0,
	}}
	if diff := cmp.Diff(want, sites); diff != "" {
		t.Errorf("sites mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeUnexportedRoutine(t *testing.T) {
	m := importedCallee()
	m.Exports = nil
	sites, err := newLowering(KindCompiler, "arm64", false).analyze(m, "mod")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(sites) != 1 || sites[0].Routine != "mod#1" {
		t.Errorf("sites = %+v, want one site in mod#1", sites)
	}
}

func TestRewriteTailCalls(t *testing.T) {
	m := importedCallee(wasm.ValI32, wasm.ValF64)
	if err := rewriteTailCalls(m); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	instrs, err := wasm.DecodeInstructions(m.Code[0].Code)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var ops []byte
	for _, in := range instrs {
		ops = append(ops, in.Opcode)
	}
	want := []byte{wasm.OpI32Const, wasm.OpF64Const, wasm.OpCall, wasm.OpReturn, wasm.OpEnd}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("opcodes mismatch (-want +got):\n%s", diff)
	}

	sites, err := newLowering(KindCompiler, "amd64", false).analyze(m, "m")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(sites) != 0 {
		t.Errorf("rewritten module still has %d tail call(s)", len(sites))
	}
}
