package types

import (
	"fmt"

	"github.com/wippyai/tailcall-stress/wasm"
	"go.bytecodealliance.org/wit"
)

// Kind classifies a ValueType.
type Kind uint8

const (
	KindU8 Kind = iota
	KindS16
	KindS32
	KindS64
	KindF32
	KindF64
	KindV128
	KindStruct
)

var kindNames = [...]string{
	KindU8:     "u8",
	KindS16:    "s16",
	KindS32:    "s32",
	KindS64:    "s64",
	KindF32:    "f32",
	KindF64:    "f64",
	KindV128:   "v128",
	KindStruct: "struct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsFloat reports whether the kind is a floating-point scalar.
func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

// ValueType describes one entry of the type catalog. Entries are created
// once and compared by pointer identity.
type ValueType struct {
	desc   wit.Type
	Name   string
	Fields []Field
	Size   uint32
	Align  uint32
	Kind   Kind
}

// Field is a named member of an aggregate. Field types are always scalars.
type Field struct {
	Type   *ValueType
	Name   string
	Offset uint32
}

func (t *ValueType) String() string {
	return t.Name
}

// IsScalar reports whether t is a primitive without fields.
func (t *ValueType) IsScalar() bool {
	return t.Kind != KindStruct
}

// HFA reports whether t is a homogeneous floating-point aggregate of one to
// four members and returns the member type and count.
func (t *ValueType) HFA() (*ValueType, int, bool) {
	if t.Kind != KindStruct || len(t.Fields) == 0 || len(t.Fields) > 4 {
		return nil, 0, false
	}
	member := t.Fields[0].Type
	if !member.Kind.IsFloat() {
		return nil, 0, false
	}
	for _, f := range t.Fields[1:] {
		if f.Type != member {
			return nil, 0, false
		}
	}
	return member, len(t.Fields), true
}

// Lower returns the wasm core value types a value of t flattens to.
// It panics on a kind without a lowering.
func (t *ValueType) Lower() []wasm.ValType {
	return t.appendLowered(nil)
}

func (t *ValueType) appendLowered(dst []wasm.ValType) []wasm.ValType {
	switch t.Kind {
	case KindU8, KindS16, KindS32:
		return append(dst, wasm.ValI32)
	case KindS64:
		return append(dst, wasm.ValI64)
	case KindF32:
		return append(dst, wasm.ValF32)
	case KindF64:
		return append(dst, wasm.ValF64)
	case KindV128:
		return append(dst, wasm.ValV128)
	case KindStruct:
		for _, f := range t.Fields {
			dst = f.Type.appendLowered(dst)
		}
		return dst
	default:
		panic(fmt.Sprintf("types: no lowering for %s", t.Kind))
	}
}

// LowerAll flattens a parameter list.
func LowerAll(params []*ValueType) []wasm.ValType {
	var out []wasm.ValType
	for _, p := range params {
		out = p.appendLowered(out)
	}
	return out
}

// Slots returns the number of host call slots a value of t occupies.
func (t *ValueType) Slots() int {
	n := 0
	for _, vt := range t.Lower() {
		n += vt.Slots()
	}
	return n
}

// WIT returns the type's WIT description. Aggregates are records; v128 is
// described as a tuple of two u64 lanes.
func (t *ValueType) WIT() wit.Type {
	return t.desc
}
