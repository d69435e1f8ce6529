package types

import (
	"fmt"
	"math"
	"strings"
)

// Value is a concrete instance of a catalog type.
//
// Scalars keep their payload in Bits: u8 as 0..255, s16/s32/s64 sign-extended
// to 64 bits, floats as IEEE bits. v128 keeps its low lane in Bits and its
// high lane in Hi. Aggregates keep their members in Fields.
type Value struct {
	Type   *ValueType
	Fields []Value
	Bits   uint64
	Hi     uint64
}

// Construct builds an aggregate from its field values. It panics if the
// field count or any field type disagrees with the declaration.
func (t *ValueType) Construct(fields []Value) Value {
	if t.Kind != KindStruct {
		panic(fmt.Sprintf("types: construct on scalar %s", t.Name))
	}
	if len(fields) != len(t.Fields) {
		panic(fmt.Sprintf("types: %s expects %d fields, got %d", t.Name, len(t.Fields), len(fields)))
	}
	for i, f := range fields {
		if f.Type != t.Fields[i].Type {
			panic(fmt.Sprintf("types: %s.%s expects %s, got %s", t.Name, t.Fields[i].Name, t.Fields[i].Type, f.Type))
		}
	}
	return Value{Type: t, Fields: append([]Value(nil), fields...)}
}

// Scalar builds a primitive value from a raw payload, normalizing it to
// the canonical representation for the kind.
func Scalar(t *ValueType, bits uint64) Value {
	switch t.Kind {
	case KindU8:
		bits &= 0xFF
	case KindS16:
		bits = uint64(int64(int16(bits)))
	case KindS32:
		bits = uint64(int64(int32(bits)))
	case KindF32:
		bits &= 0xFFFFFFFF
	case KindS64, KindF64:
	default:
		panic(fmt.Sprintf("types: %s is not a single-word scalar", t.Name))
	}
	return Value{Type: t, Bits: bits}
}

// Vector builds a v128 value from its two lanes.
func Vector(lo, hi uint64) Value {
	return Value{Type: V128, Bits: lo, Hi: hi}
}

// Field projects the i-th member of an aggregate.
func (v Value) Field(i int) Value {
	return v.Fields[i]
}

// Equal compares two values structurally, including float bit patterns.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type || v.Bits != o.Bits || v.Hi != o.Hi || len(v.Fields) != len(o.Fields) {
		return false
	}
	for i := range v.Fields {
		if !v.Fields[i].Equal(o.Fields[i]) {
			return false
		}
	}
	return true
}

// Flatten returns the host call slots for v: one uint64 per core value,
// i32 and f32 zero-extended, v128 as low lane then high lane.
func (v Value) Flatten() []uint64 {
	return v.AppendFlat(nil)
}

// AppendFlat appends the call slots of v to dst.
func (v Value) AppendFlat(dst []uint64) []uint64 {
	switch v.Type.Kind {
	case KindU8, KindS16, KindS32, KindF32:
		return append(dst, uint64(uint32(v.Bits)))
	case KindS64, KindF64:
		return append(dst, v.Bits)
	case KindV128:
		return append(dst, v.Bits, v.Hi)
	case KindStruct:
		for _, f := range v.Fields {
			dst = f.AppendFlat(dst)
		}
		return dst
	default:
		panic(fmt.Sprintf("types: cannot flatten %s", v.Type.Kind))
	}
}

// FlattenAll concatenates the call slots of values.
func FlattenAll(values []Value) []uint64 {
	var out []uint64
	for _, v := range values {
		out = v.AppendFlat(out)
	}
	return out
}

func (v Value) String() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

func (v Value) writeTo(sb *strings.Builder) {
	switch v.Type.Kind {
	case KindU8:
		fmt.Fprintf(sb, "%d", v.Bits)
	case KindS16, KindS32, KindS64:
		fmt.Fprintf(sb, "%d", int64(v.Bits))
	case KindF32:
		fmt.Fprintf(sb, "%g", math.Float32frombits(uint32(v.Bits)))
	case KindF64:
		fmt.Fprintf(sb, "%g", math.Float64frombits(v.Bits))
	case KindV128:
		fmt.Fprintf(sb, "v128(%#x, %#x)", v.Bits, v.Hi)
	case KindStruct:
		sb.WriteString(v.Type.Name)
		sb.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			f.writeTo(sb)
		}
		sb.WriteByte('}')
	}
}
