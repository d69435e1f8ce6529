package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01
)

// Section IDs for the sections the harness emits and reads back.
// Sections must appear in increasing order by ID (except custom sections).
const (
	SectionCustom   byte = 0  // Custom section (can appear anywhere)
	SectionType     byte = 1  // Type section (function signatures)
	SectionImport   byte = 2  // Import section
	SectionFunction byte = 3  // Function section (type indices)
	SectionExport   byte = 7  // Export section
	SectionCode     byte = 10 // Code section (function bodies)
)

// Import/Export descriptor kinds. Only functions cross module boundaries here.
const (
	KindFunc byte = 0
)

// Value type encodings as defined in the WebAssembly binary format.
const (
	ValI32  ValType = 0x7F // 32-bit integer
	ValI64  ValType = 0x7E // 64-bit integer
	ValF32  ValType = 0x7D // 32-bit float
	ValF64  ValType = 0x7C // 64-bit float
	ValV128 ValType = 0x7B // 128-bit vector (SIMD)
)

// FuncTypeByte introduces a function type in the type section.
const FuncTypeByte byte = 0x60

// Control flow opcodes
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpEnd         byte = 0x0B
	OpReturn      byte = 0x0F
	OpCall        byte = 0x10
	OpReturnCall  byte = 0x12 // Tail call proposal
	OpDrop        byte = 0x1A
)

// Variable opcodes
const (
	OpLocalGet byte = 0x20
)

// Constant opcodes
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpF32Const byte = 0x43
	OpF64Const byte = 0x44
)

// Numeric opcodes used by the fold bodies.
const (
	OpI64Mul            byte = 0x7E
	OpI64Xor            byte = 0x85
	OpI64ExtendI32U     byte = 0xAD
	OpI32ReinterpretF32 byte = 0xBC
	OpI64ReinterpretF64 byte = 0xBD
)

// OpPrefixSIMD introduces a 128-bit vector instruction.
const OpPrefixSIMD byte = 0xFD

// SIMD sub-opcodes (0xFD prefix)
const (
	SimdV128Const        uint32 = 0x0C
	SimdI64x2ExtractLane uint32 = 0x1D
	SimdI64x2ReplaceLane uint32 = 0x1E
)
