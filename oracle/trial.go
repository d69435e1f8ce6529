package oracle

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/wippyai/tailcall-stress/expr"
	"github.com/wippyai/tailcall-stress/pool"
	"github.com/wippyai/tailcall-stress/types"
	"github.com/wippyai/tailcall-stress/wasm"
)

// NamePrefix starts the module and routine name of every generated caller.
// The diagnostic listener counts only routines carrying it.
const NamePrefix = "tailcaller_"

// callerStream is the second PCG word for trials; callees use their index.
const callerStream = 0x7461696c63616c6c

// Trial is the deterministic part of one differential trial: everything
// derived from the trial index before any code runs.
type Trial struct {
	Callee *pool.Callee
	Name   string
	Params []*types.ValueType
	Args   []expr.Expr
	Outer  []types.Value
	Inner  []types.Value
	Index  int
	Seed   uint64
	Area   uint32
}

// Skipped reports whether no callee fits below the caller's area.
func (t *Trial) Skipped() bool {
	return t.Callee == nil
}

// Signature renders the caller's parameter list as a WIT function type.
func (t *Trial) Signature() string {
	return types.Signature(t.Params)
}

// Forwarding reports whether every callee argument comes from the caller's
// parameters.
func (t *Trial) Forwarding() bool {
	for _, a := range t.Args {
		if !expr.IsForward(a) {
			return false
		}
	}
	return true
}

// Module builds the caller module: it imports the callee routine, computes
// each argument expression in order and tail calls the import.
func (t *Trial) Module() *wasm.Module {
	m := &wasm.Module{}
	calleeType := m.AddType(t.Callee.FuncType())
	callerType := m.AddType(wasm.FuncType{
		Params:  types.LowerAll(t.Params),
		Results: []wasm.ValType{wasm.ValI64},
	})
	m.Imports = []wasm.Import{{
		Module: t.Callee.Name,
		Name:   t.Callee.Name,
		Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: calleeType},
	}}
	m.Funcs = []uint32{callerType}
	m.Exports = []wasm.Export{{Name: t.Name, Kind: wasm.KindFunc, Idx: 1}}

	scope := expr.NewScope(t.Params)
	var code []wasm.Instruction
	for _, a := range t.Args {
		code = a.Emit(scope, code)
	}
	code = append(code, wasm.ReturnCall(0), wasm.End())
	m.Code = []wasm.FuncBody{{Code: wasm.EncodeInstructions(code)}}
	return m
}

// String describes the call the trial makes, e.g.
// "tailcaller_3(s32, hfa2f) -> tailcallee_17(arg0, arg1.f0)".
func (t *Trial) String() string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	sb.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
	}
	sb.WriteString(")")
	if t.Callee == nil {
		sb.WriteString(" skipped")
		return sb.String()
	}
	sb.WriteString(" -> ")
	sb.WriteString(t.Callee.Name)
	sb.WriteByte('(')
	for i, a := range t.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// plan derives trial i. It draws, in order: the caller parameters, the
// callee, one expression per callee parameter and the caller arguments.
func (o *Oracle) plan(i int) *Trial {
	seed := o.seed + uint64(i)
	rng := rand.New(rand.NewPCG(seed, callerStream))

	t := &Trial{
		Index:  i,
		Seed:   seed,
		Name:   NamePrefix + strconv.Itoa(i),
		Params: pool.RandomParams(rng, o.contract),
	}
	t.Area = o.contract.ApproximateStackArea(t.Params)

	eligible := o.pool.Eligible(t.Area)
	if len(eligible) == 0 {
		return t
	}
	t.Callee = eligible[rng.IntN(len(eligible))]

	t.Args = make([]expr.Expr, len(t.Callee.Params))
	for j, target := range t.Callee.Params {
		t.Args[j] = expr.Resolve(target, t.Params, rng)
	}
	t.Outer = make([]types.Value, len(t.Params))
	for j, p := range t.Params {
		t.Outer[j] = expr.SynthesizeValue(p, rng)
	}
	t.Inner = make([]types.Value, len(t.Args))
	for j, a := range t.Args {
		t.Inner[j] = a.Get(t.Outer)
	}
	return t
}
