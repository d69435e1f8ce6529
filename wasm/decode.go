package wasm

import (
	"errors"
	"fmt"

	"github.com/wippyai/tailcall-stress/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

type sectionDecoder struct {
	name   string
	decode func(*binary.Reader, *Module) error
}

// sectionDecoders covers exactly the sections Encode writes.
var sectionDecoders = map[byte]sectionDecoder{
	SectionCustom:   {"custom", decodeCustom},
	SectionType:     {"type", decodeTypes},
	SectionImport:   {"import", decodeImports},
	SectionFunction: {"function", decodeFuncs},
	SectionExport:   {"export", decodeExports},
	SectionCode:     {"code", decodeCode},
}

// ParseModule parses a module made of the sections the harness emits.
// Any other section is an error, as is a section that is out of order or
// not consumed to its end.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)
	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	var last byte
	for r.Len() > 0 {
		id, _ := r.ReadByte()
		dec, ok := sectionDecoders[id]
		if !ok {
			return nil, r.WrapError("", fmt.Errorf("unsupported section ID: 0x%02x", id))
		}
		if id != SectionCustom {
			if id <= last {
				return nil, r.WrapError(dec.name, fmt.Errorf("section %d appears out of order", id))
			}
			last = id
		}
		body, err := r.Sub()
		if err != nil {
			return nil, r.WrapError(dec.name, err)
		}
		if err := dec.decode(body, m); err != nil {
			return nil, body.WrapError(dec.name, err)
		}
		if body.Len() != 0 {
			return nil, body.WrapError(dec.name, fmt.Errorf("%d trailing bytes", body.Len()))
		}
	}

	if len(m.Code) != len(m.Funcs) {
		return nil, fmt.Errorf("function and code section counts differ: %d vs %d", len(m.Funcs), len(m.Code))
	}
	return m, nil
}

func decodeCustom(r *binary.Reader, m *Module) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	rest, _ := r.ReadRemaining()
	m.CustomSections = append(m.CustomSections, CustomSection{Name: name, Data: append([]byte(nil), rest...)})
	return nil
}

func decodeTypes(r *binary.Reader, m *Module) (err error) {
	m.Types, err = binary.ReadVector(r, func(r *binary.Reader) (FuncType, error) {
		if form, err := r.ReadByte(); err != nil {
			return FuncType{}, err
		} else if form != FuncTypeByte {
			return FuncType{}, fmt.Errorf("unsupported type form 0x%02x", form)
		}
		params, err := binary.ReadVector(r, readValType)
		if err != nil {
			return FuncType{}, err
		}
		results, err := binary.ReadVector(r, readValType)
		return FuncType{Params: params, Results: results}, err
	})
	return err
}

func readValType(r *binary.Reader) (ValType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if vt := ValType(b); vt.String() != "unknown" {
		return vt, nil
	}
	return 0, fmt.Errorf("unsupported value type 0x%02x", b)
}

// readFuncRef reads a function-kind descriptor followed by its index.
func readFuncRef(r *binary.Reader) (uint32, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if kind != KindFunc {
		return 0, fmt.Errorf("unsupported external kind %d", kind)
	}
	return r.ReadU32()
}

func decodeImports(r *binary.Reader, m *Module) (err error) {
	m.Imports, err = binary.ReadVector(r, func(r *binary.Reader) (Import, error) {
		var imp Import
		var err error
		if imp.Module, err = r.ReadName(); err != nil {
			return imp, err
		}
		if imp.Name, err = r.ReadName(); err != nil {
			return imp, err
		}
		imp.Desc.TypeIdx, err = readFuncRef(r)
		return imp, err
	})
	return err
}

func decodeFuncs(r *binary.Reader, m *Module) (err error) {
	m.Funcs, err = binary.ReadVector(r, (*binary.Reader).ReadU32)
	return err
}

func decodeExports(r *binary.Reader, m *Module) (err error) {
	m.Exports, err = binary.ReadVector(r, func(r *binary.Reader) (Export, error) {
		name, err := r.ReadName()
		if err != nil {
			return Export{}, err
		}
		idx, err := readFuncRef(r)
		return Export{Name: name, Kind: KindFunc, Idx: idx}, err
	})
	return err
}

func decodeCode(r *binary.Reader, m *Module) (err error) {
	m.Code, err = binary.ReadVector(r, func(r *binary.Reader) (FuncBody, error) {
		br, err := r.Sub()
		if err != nil {
			return FuncBody{}, err
		}
		locals, err := binary.ReadVector(br, func(r *binary.Reader) (LocalEntry, error) {
			n, err := r.ReadU32()
			if err != nil {
				return LocalEntry{}, err
			}
			vt, err := readValType(r)
			return LocalEntry{Count: n, ValType: vt}, err
		})
		if err != nil {
			return FuncBody{}, err
		}
		code, _ := br.ReadRemaining()
		return FuncBody{Locals: locals, Code: append([]byte(nil), code...)}, nil
	})
	return err
}
