package types

import (
	"fmt"

	"go.bytecodealliance.org/wit"
)

// Scalar catalog entries.
var (
	U8   = scalar("u8", KindU8, wit.U8{})
	S16  = scalar("s16", KindS16, wit.S16{})
	S32  = scalar("s32", KindS32, wit.S32{})
	S64  = scalar("s64", KindS64, wit.S64{})
	F32  = scalar("f32", KindF32, wit.F32{})
	F64  = scalar("f64", KindF64, wit.F64{})
	V128 = scalar("v128", KindV128, named("v128", &wit.Tuple{Types: []wit.Type{wit.U64{}, wit.U64{}}}))
)

// Aggregate catalog entries. The name encodes the size in bytes and whether
// an ABI may promote the aggregate to a single scalar register (p) or not (u).
var (
	S1P  = aggregate("s1p", U8)
	S2P  = aggregate("s2p", S16)
	S2U  = aggregate("s2u", U8, U8)
	S3U  = aggregate("s3u", U8, U8, U8)
	S4P  = aggregate("s4p", S32)
	S4U  = aggregate("s4u", S16, S16)
	S5U  = aggregate("s5u", U8, U8, U8, U8, U8)
	S6U  = aggregate("s6u", S16, S16, S16)
	S7U  = aggregate("s7u", U8, U8, U8, U8, U8, U8, U8)
	S8P  = aggregate("s8p", S64)
	S8U  = aggregate("s8u", S32, S32)
	S9U  = aggregate("s9u", U8, U8, U8, U8, U8, U8, U8, U8, U8)
	S12U = aggregate("s12u", S32, S32, S32)
	S16U = aggregate("s16u", S64, S64)
	S17U = aggregate("s17u", S64, S64, U8)
	S24U = aggregate("s24u", S64, S64, S64)
	S32U = aggregate("s32u", S64, S64, S64, S64)

	HFA1F = aggregate("hfa1f", F32)
	HFA2F = aggregate("hfa2f", F32, F32)
	HFA3F = aggregate("hfa3f", F32, F32, F32)
	HFA4F = aggregate("hfa4f", F32, F32, F32, F32)
	HFA2D = aggregate("hfa2d", F64, F64)
	HFA3D = aggregate("hfa3d", F64, F64, F64)
	HFA4D = aggregate("hfa4d", F64, F64, F64, F64)

	SMix  = aggregate("smix", S32, F32)
	SMixD = aggregate("smixd", F64, S64)
)

var (
	scalars    = []*ValueType{U8, S16, S32, S64, F32, F64, V128}
	aggregates = []*ValueType{
		S1P, S2P, S2U, S3U, S4P, S4U, S5U, S6U, S7U, S8P, S8U, S9U,
		S12U, S16U, S17U, S24U, S32U,
		HFA1F, HFA2F, HFA3F, HFA4F, HFA2D, HFA3D, HFA4D,
		SMix, SMixD,
	}
	byName = index()
)

// Scalars returns the primitive catalog entries in declaration order.
func Scalars() []*ValueType {
	return append([]*ValueType(nil), scalars...)
}

// Aggregates returns the struct catalog entries in declaration order.
func Aggregates() []*ValueType {
	return append([]*ValueType(nil), aggregates...)
}

// All returns scalars followed by aggregates.
func All() []*ValueType {
	return append(Scalars(), aggregates...)
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (*ValueType, bool) {
	t, ok := byName[name]
	return t, ok
}

func index() map[string]*ValueType {
	m := make(map[string]*ValueType, len(scalars)+len(aggregates))
	for _, t := range scalars {
		m[t.Name] = t
	}
	for _, t := range aggregates {
		m[t.Name] = t
	}
	return m
}

var calc = newCalculator()

func named(name string, kind wit.TypeDefKind) *wit.TypeDef {
	return &wit.TypeDef{Name: &name, Kind: kind}
}

func scalar(name string, kind Kind, desc wit.Type) *ValueType {
	info := calc.calculate(desc)
	return &ValueType{
		Name:  name,
		Kind:  kind,
		Size:  info.size,
		Align: info.align,
		desc:  desc,
	}
}

func aggregate(name string, fieldTypes ...*ValueType) *ValueType {
	if len(fieldTypes) == 0 {
		panic(fmt.Sprintf("types: aggregate %s has no fields", name))
	}
	record := &wit.Record{Fields: make([]wit.Field, len(fieldTypes))}
	fields := make([]Field, len(fieldTypes))
	for i, ft := range fieldTypes {
		if !ft.IsScalar() {
			panic(fmt.Sprintf("types: aggregate %s nests %s", name, ft.Name))
		}
		fname := fmt.Sprintf("f%d", i)
		record.Fields[i] = wit.Field{Name: fname, Type: ft.desc}
		fields[i] = Field{Name: fname, Type: ft}
	}
	desc := named(name, record)
	info := calc.calculate(desc)
	for i := range fields {
		fields[i].Offset = info.fieldOffs[fields[i].Name]
	}
	return &ValueType{
		Name:   name,
		Kind:   KindStruct,
		Fields: fields,
		Size:   info.size,
		Align:  info.align,
		desc:   desc,
	}
}
