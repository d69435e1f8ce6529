// Package wasm encodes and decodes the WebAssembly binary subset used by
// generated caller and callee modules.
//
// # Supported Features
//
//	Sections: type, import, function, export, code, custom
//	Value types: i32, i64, f32, f64, v128
//	Instructions:
//	  - local.get, i32/i64/f32/f64 constants, v128.const
//	  - call and return_call (tail call proposal)
//	  - i64 xor/mul, i64.extend_i32_u, reinterpret conversions
//	  - i64x2.extract_lane / replace_lane
//
// # Building
//
//	m := &wasm.Module{}
//	ti := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}, Results: []wasm.ValType{wasm.ValI64}})
//	m.Funcs = []uint32{ti}
//	m.Exports = []wasm.Export{{Name: "run", Kind: wasm.KindFunc, Idx: 0}}
//	m.Code = []wasm.FuncBody{{Code: wasm.EncodeInstructions([]wasm.Instruction{
//	    wasm.LocalGet(0), wasm.End(),
//	})}}
//	bin := m.Encode()
//
// # Parsing
//
//	module, err := wasm.ParseModule(bin)
//	instrs, err := wasm.DecodeInstructions(module.Code[0].Code)
//
// Float constants are carried as raw IEEE bits so that every pattern,
// including signalling NaNs, survives a round trip unchanged.
package wasm
