package types

import (
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"
)

// Signature renders a parameter list as a WIT-style function type that
// returns the u64 fold, e.g. "func(p0: s32, p1: s17u) -> u64".
func Signature(params []*ValueType) string {
	var sb strings.Builder
	sb.WriteString("func(")
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('p')
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(": ")
		sb.WriteString(p.Name)
	}
	sb.WriteString(") -> u64")
	return sb.String()
}

// Declaration renders the WIT declaration of t: a record for aggregates, a
// tuple alias for v128 and the bare primitive name otherwise.
func Declaration(t *ValueType) string {
	return declare(t.desc)
}

func declare(t wit.Type) string {
	td, ok := t.(*wit.TypeDef)
	if !ok {
		return witName(t)
	}
	var sb strings.Builder
	switch kind := td.Kind.(type) {
	case *wit.Record:
		sb.WriteString("record ")
		sb.WriteString(*td.Name)
		sb.WriteString(" { ")
		for i, f := range kind.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			sb.WriteString(witName(f.Type))
		}
		sb.WriteString(" }")
	case *wit.Tuple:
		sb.WriteString("type ")
		sb.WriteString(*td.Name)
		sb.WriteString(" = tuple<")
		for i, el := range kind.Types {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(witName(el))
		}
		sb.WriteByte('>')
	default:
		return witName(t)
	}
	return sb.String()
}

func witName(t wit.Type) string {
	switch typ := t.(type) {
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case *wit.TypeDef:
		if typ.Name != nil {
			return *typ.Name
		}
	}
	return "unknown"
}
