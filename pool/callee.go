package pool

import (
	"github.com/wippyai/tailcall-stress/engine"
	"github.com/wippyai/tailcall-stress/types"
	"github.com/wippyai/tailcall-stress/wasm"
)

// Callee is one pool entry. The routine is nil until the callee is
// materialized and never changes afterwards.
type Callee struct {
	routine *engine.Routine
	Name    string
	Params  []*types.ValueType
	ID      int
	Area    uint32
}

// Routine returns the loaded routine, or nil before materialization.
func (c *Callee) Routine() *engine.Routine {
	return c.routine
}

// Materialized reports whether the callee has been loaded.
func (c *Callee) Materialized() bool {
	return c.routine != nil
}

// Signature renders the callee's parameter list as a WIT function type.
func (c *Callee) Signature() string {
	return types.Signature(c.Params)
}

// FuncType returns the wasm type of the callee routine.
func (c *Callee) FuncType() wasm.FuncType {
	return wasm.FuncType{
		Params:  types.LowerAll(c.Params),
		Results: []wasm.ValType{wasm.ValI64},
	}
}

// Module builds the callee module: one exported function, named after the
// module, folding every flattened parameter word into an i64.
func (c *Callee) Module() *wasm.Module {
	m := &wasm.Module{}
	ft := c.FuncType()
	m.Funcs = []uint32{m.AddType(ft)}
	m.Exports = []wasm.Export{{Name: c.Name, Kind: wasm.KindFunc, Idx: 0}}
	m.Code = []wasm.FuncBody{{Code: wasm.EncodeInstructions(foldBody(ft.Params))}}
	return m
}

// foldBody computes types.Fold over the parameters in wasm.
func foldBody(params []wasm.ValType) []wasm.Instruction {
	offset, prime := types.FoldOffset, types.FoldPrime
	code := []wasm.Instruction{wasm.I64Const(int64(offset))}
	mix := func() {
		code = append(code,
			wasm.Op(wasm.OpI64Xor),
			wasm.I64Const(int64(prime)),
			wasm.Op(wasm.OpI64Mul))
	}
	for i, vt := range params {
		local := wasm.LocalGet(uint32(i))
		switch vt {
		case wasm.ValI32:
			code = append(code, local, wasm.Op(wasm.OpI64ExtendI32U))
		case wasm.ValI64:
			code = append(code, local)
		case wasm.ValF32:
			code = append(code, local, wasm.Op(wasm.OpI32ReinterpretF32), wasm.Op(wasm.OpI64ExtendI32U))
		case wasm.ValF64:
			code = append(code, local, wasm.Op(wasm.OpI64ReinterpretF64))
		case wasm.ValV128:
			code = append(code, local, wasm.I64x2ExtractLane(0))
			mix()
			code = append(code, local, wasm.I64x2ExtractLane(1))
		}
		mix()
	}
	return append(code, wasm.End())
}
