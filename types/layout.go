package types

import (
	"go.bytecodealliance.org/wit"
)

type layoutInfo struct {
	fieldOffs map[string]uint32
	size      uint32
	align     uint32
}

// calculator computes natural size and alignment over WIT descriptions.
type calculator struct {
	cache map[*wit.TypeDef]layoutInfo
}

func newCalculator() *calculator {
	return &calculator{cache: make(map[*wit.TypeDef]layoutInfo)}
}

func (c *calculator) calculate(t wit.Type) layoutInfo {
	switch typ := t.(type) {
	case wit.U8, wit.S8:
		return layoutInfo{size: 1, align: 1}
	case wit.U16, wit.S16:
		return layoutInfo{size: 2, align: 2}
	case wit.U32, wit.S32, wit.F32:
		return layoutInfo{size: 4, align: 4}
	case wit.U64, wit.S64, wit.F64:
		return layoutInfo{size: 8, align: 8}
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return layoutInfo{size: 0, align: 1}
	}
}

func (c *calculator) calculateTypeDef(t *wit.TypeDef) layoutInfo {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info layoutInfo
	switch kind := t.Kind.(type) {
	case *wit.Record:
		info = c.calculateRecord(kind)
	case *wit.Tuple:
		info = c.calculateTuple(kind)
	case wit.Type:
		info = c.calculate(kind)
	default:
		info = layoutInfo{size: 0, align: 1}
	}

	// The vector type is a tuple of lanes but keeps its own 16-byte alignment.
	if t.Name != nil && *t.Name == "v128" {
		info.align = 16
		info.size = alignTo(info.size, 16)
	}

	c.cache[t] = info
	return info
}

func (c *calculator) calculateRecord(r *wit.Record) layoutInfo {
	if len(r.Fields) == 0 {
		return layoutInfo{size: 0, align: 1}
	}

	fieldOffs := make(map[string]uint32, len(r.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for _, field := range r.Fields {
		fl := c.calculate(field.Type)

		offset = alignTo(offset, fl.align)
		fieldOffs[field.Name] = offset

		if fl.align > maxAlign {
			maxAlign = fl.align
		}
		offset += fl.size
	}

	return layoutInfo{
		size:      alignTo(offset, maxAlign),
		align:     maxAlign,
		fieldOffs: fieldOffs,
	}
}

func (c *calculator) calculateTuple(t *wit.Tuple) layoutInfo {
	if len(t.Types) == 0 {
		return layoutInfo{size: 0, align: 1}
	}

	maxAlign := uint32(1)
	offset := uint32(0)
	for _, typ := range t.Types {
		el := c.calculate(typ)
		offset = alignTo(offset, el.align)
		if el.align > maxAlign {
			maxAlign = el.align
		}
		offset += el.size
	}
	return layoutInfo{size: alignTo(offset, maxAlign), align: maxAlign}
}

// alignTo rounds offset up to a multiple of align (a power of two).
func alignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// RoundUp rounds n up to a multiple of the power-of-two m.
func RoundUp(n, m uint32) uint32 {
	return alignTo(n, m)
}
