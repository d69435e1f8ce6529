package wasm

import "strings"

// Module represents a WebAssembly module restricted to the sections the
// harness produces: function types, function imports, local functions,
// exports and code.
type Module struct {
	Types          []FuncType
	Imports        []Import
	Funcs          []uint32 // Type indices for declared functions
	Exports        []Export
	Code           []FuncBody
	CustomSections []CustomSection
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// String renders the signature in text-format style, e.g. "(i32 i64) -> (i64)".
func (ft FuncType) String() string {
	var sb strings.Builder
	writeList := func(vs []ValType) {
		sb.WriteByte('(')
		for i, v := range vs {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(v.String())
		}
		sb.WriteByte(')')
	}
	writeList(ft.Params)
	sb.WriteString(" -> ")
	writeList(ft.Results)
	return sb.String()
}

// ValType is a WebAssembly core value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	default:
		return "unknown"
	}
}

// Slots returns how many uint64 call slots a value of this type occupies
// when passed through the host call interface.
func (v ValType) Slots() int {
	if v == ValV128 {
		return 2
	}
	return 1
}

// Import represents an imported function.
type Import struct {
	Desc   ImportDesc
	Module string
	Name   string
}

// ImportDesc describes an imported item.
type ImportDesc struct {
	Kind    byte
	TypeIdx uint32
}

// Export represents an exported item.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// FuncBody holds the locals and raw instruction bytes of a local function.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// LocalEntry declares Count locals of one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// CustomSection is an opaque named section.
type CustomSection struct {
	Name string
	Data []byte
}

// NumImportedFuncs returns the number of imported functions, which occupy
// the lowest function indices.
func (m *Module) NumImportedFuncs() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			n++
		}
	}
	return n
}

// GetFuncType returns the signature of the function at funcIdx, or nil.
func (m *Module) GetFuncType(funcIdx uint32) *FuncType {
	numImported := uint32(m.NumImportedFuncs())
	if funcIdx < numImported {
		imp := m.ImportOf(funcIdx)
		if imp == nil {
			return nil
		}
		return m.typeByIdx(imp.Desc.TypeIdx)
	}
	local := funcIdx - numImported
	if int(local) >= len(m.Funcs) {
		return nil
	}
	return m.typeByIdx(m.Funcs[local])
}

// ImportOf returns the import that defines funcIdx, or nil when the
// function is local.
func (m *Module) ImportOf(funcIdx uint32) *Import {
	var n uint32
	for i := range m.Imports {
		if m.Imports[i].Desc.Kind != KindFunc {
			continue
		}
		if n == funcIdx {
			return &m.Imports[i]
		}
		n++
	}
	return nil
}

// ExportName returns the first export name of funcIdx, or "".
func (m *Module) ExportName(funcIdx uint32) string {
	for _, exp := range m.Exports {
		if exp.Kind == KindFunc && exp.Idx == funcIdx {
			return exp.Name
		}
	}
	return ""
}

func (m *Module) typeByIdx(typeIdx uint32) *FuncType {
	if int(typeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[typeIdx]
}

// AddType adds a function type and returns its index, reusing an
// identical existing entry.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, existing := range m.Types {
		if typesEqual(existing, ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

func typesEqual(a, b FuncType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}
