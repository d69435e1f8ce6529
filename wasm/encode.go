package wasm

import (
	"github.com/wippyai/tailcall-stress/wasm/internal/binary"
)

// Encode serializes the module. Empty sections are omitted and custom
// sections are written after the code section.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	section := func(id byte, n int, body func(*binary.Writer)) {
		if n == 0 {
			return
		}
		sec := binary.NewWriter()
		body(sec)
		w.Byte(id)
		w.WriteSized(sec.Bytes())
	}

	section(SectionType, len(m.Types), func(sec *binary.Writer) {
		binary.WriteVector(sec, m.Types, func(w *binary.Writer, ft FuncType) {
			w.Byte(FuncTypeByte)
			binary.WriteVector(w, ft.Params, writeValType)
			binary.WriteVector(w, ft.Results, writeValType)
		})
	})
	section(SectionImport, len(m.Imports), func(sec *binary.Writer) {
		binary.WriteVector(sec, m.Imports, func(w *binary.Writer, imp Import) {
			w.WriteName(imp.Module)
			w.WriteName(imp.Name)
			w.Byte(imp.Desc.Kind)
			w.WriteU32(imp.Desc.TypeIdx)
		})
	})
	section(SectionFunction, len(m.Funcs), func(sec *binary.Writer) {
		binary.WriteVector(sec, m.Funcs, (*binary.Writer).WriteU32)
	})
	section(SectionExport, len(m.Exports), func(sec *binary.Writer) {
		binary.WriteVector(sec, m.Exports, func(w *binary.Writer, exp Export) {
			w.WriteName(exp.Name)
			w.Byte(exp.Kind)
			w.WriteU32(exp.Idx)
		})
	})
	section(SectionCode, len(m.Code), func(sec *binary.Writer) {
		binary.WriteVector(sec, m.Code, func(w *binary.Writer, body FuncBody) {
			bw := binary.NewWriter()
			binary.WriteVector(bw, body.Locals, func(w *binary.Writer, l LocalEntry) {
				w.WriteU32(l.Count)
				writeValType(w, l.ValType)
			})
			bw.WriteBytes(body.Code)
			w.WriteSized(bw.Bytes())
		})
	})
	for _, cs := range m.CustomSections {
		section(SectionCustom, 1, func(sec *binary.Writer) {
			sec.WriteName(cs.Name)
			sec.WriteBytes(cs.Data)
		})
	}
	return w.Bytes()
}

func writeValType(w *binary.Writer, t ValType) {
	w.Byte(byte(t))
}
