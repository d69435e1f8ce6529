package expr

import (
	"fmt"

	"github.com/wippyai/tailcall-stress/types"
	"github.com/wippyai/tailcall-stress/wasm"
)

// Expr describes how a caller obtains one argument for its callee. Get and
// Emit must agree: the instructions Emit produces leave on the wasm stack
// exactly the flattened value Get computes.
type Expr interface {
	Type() *types.ValueType
	Get(args []types.Value) types.Value
	Emit(s *Scope, dst []wasm.Instruction) []wasm.Instruction
	String() string
}

// addressable expressions live in caller locals and can be projected
// without materializing the whole value.
type addressable interface {
	firstLocal(s *Scope) uint32
}

// Scope maps caller parameters to the wasm locals holding their
// flattened core values.
type Scope struct {
	params []*types.ValueType
	first  []uint32
}

// NewScope lays out the locals of a caller with the given parameters.
func NewScope(params []*types.ValueType) *Scope {
	s := &Scope{params: params, first: make([]uint32, len(params))}
	var next uint32
	for i, p := range params {
		s.first[i] = next
		next += uint32(len(p.Lower()))
	}
	return s
}

// Local returns the first local index of parameter i.
func (s *Scope) Local(i int) uint32 {
	return s.first[i]
}

// ArgRef forwards caller parameter Index unchanged.
type ArgRef struct {
	typ   *types.ValueType
	Index int
}

// NewArgRef references parameter index of type t.
func NewArgRef(index int, t *types.ValueType) *ArgRef {
	return &ArgRef{Index: index, typ: t}
}

func (a *ArgRef) Type() *types.ValueType { return a.typ }

func (a *ArgRef) Get(args []types.Value) types.Value {
	return args[a.Index]
}

func (a *ArgRef) firstLocal(s *Scope) uint32 {
	return s.Local(a.Index)
}

func (a *ArgRef) Emit(s *Scope, dst []wasm.Instruction) []wasm.Instruction {
	first := a.firstLocal(s)
	for i := range a.typ.Lower() {
		dst = append(dst, wasm.LocalGet(first+uint32(i)))
	}
	return dst
}

func (a *ArgRef) String() string {
	return fmt.Sprintf("arg%d", a.Index)
}

// FieldProj extracts one field of an aggregate-valued base expression.
type FieldProj struct {
	Base  Expr
	Field int
}

// NewFieldProj projects field of base. It panics if base is not an
// aggregate or the field does not exist.
func NewFieldProj(base Expr, field int) *FieldProj {
	bt := base.Type()
	if bt.IsScalar() || field < 0 || field >= len(bt.Fields) {
		panic(fmt.Sprintf("expr: %s has no field %d", bt, field))
	}
	return &FieldProj{Base: base, Field: field}
}

func (p *FieldProj) Type() *types.ValueType {
	return p.Base.Type().Fields[p.Field].Type
}

func (p *FieldProj) Get(args []types.Value) types.Value {
	return p.Base.Get(args).Field(p.Field)
}

func (p *FieldProj) firstLocal(s *Scope) uint32 {
	base, ok := p.Base.(addressable)
	if !ok {
		panic(fmt.Sprintf("expr: cannot project %s: base is not addressable", p.Base))
	}
	first := base.firstLocal(s)
	for _, f := range p.Base.Type().Fields[:p.Field] {
		first += uint32(len(f.Type.Lower()))
	}
	return first
}

func (p *FieldProj) Emit(s *Scope, dst []wasm.Instruction) []wasm.Instruction {
	first := p.firstLocal(s)
	for i := range p.Type().Lower() {
		dst = append(dst, wasm.LocalGet(first+uint32(i)))
	}
	return dst
}

func (p *FieldProj) String() string {
	return fmt.Sprintf("%s.%s", p.Base, p.Base.Type().Fields[p.Field].Name)
}

// Literal is a constant value.
type Literal struct {
	Value types.Value
}

func (l *Literal) Type() *types.ValueType { return l.Value.Type }

func (l *Literal) Get([]types.Value) types.Value {
	return l.Value
}

func (l *Literal) Emit(_ *Scope, dst []wasm.Instruction) []wasm.Instruction {
	return emitValue(l.Value, dst)
}

func (l *Literal) String() string {
	return l.Value.String()
}

// emitValue pushes every flattened core value of v. It panics on a kind
// without a constant encoding.
func emitValue(v types.Value, dst []wasm.Instruction) []wasm.Instruction {
	switch v.Type.Kind {
	case types.KindU8, types.KindS16, types.KindS32:
		return append(dst, wasm.I32Const(int32(v.Bits)))
	case types.KindS64:
		return append(dst, wasm.I64Const(int64(v.Bits)))
	case types.KindF32:
		return append(dst, wasm.F32Const(uint32(v.Bits)))
	case types.KindF64:
		return append(dst, wasm.F64Const(v.Bits))
	case types.KindV128:
		return append(dst, wasm.V128Const(v.Bits, v.Hi))
	case types.KindStruct:
		for _, f := range v.Fields {
			dst = emitValue(f, dst)
		}
		return dst
	default:
		panic(fmt.Sprintf("expr: no literal encoding for %s", v.Type.Kind))
	}
}
