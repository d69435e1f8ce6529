package wasm

import (
	"fmt"

	"github.com/wippyai/tailcall-stress/wasm/internal/binary"
)

// Instruction represents a decoded WebAssembly instruction
type Instruction struct {
	Imm    interface{}
	Opcode byte
}

// CallImm holds the function index for call and return_call.
type CallImm struct {
	FuncIdx uint32
}

// LocalImm holds the local index for local.get.
type LocalImm struct {
	LocalIdx uint32
}

// I32Imm holds an i32.const immediate.
type I32Imm struct {
	Value int32
}

// I64Imm holds an i64.const immediate.
type I64Imm struct {
	Value int64
}

// F32Imm holds an f32.const immediate as raw IEEE bits so that every bit
// pattern survives a round trip.
type F32Imm struct {
	Bits uint32
}

// F64Imm holds an f64.const immediate as raw IEEE bits.
type F64Imm struct {
	Bits uint64
}

// SIMDImm holds a 0xFD-prefixed sub-opcode and its immediate.
// V128Bytes is set for v128.const; LaneIdx for lane operations.
type SIMDImm struct {
	V128Bytes []byte
	SubOpcode uint32
	LaneIdx   byte
}

// LocalGet returns local.get idx.
func LocalGet(idx uint32) Instruction {
	return Instruction{Opcode: OpLocalGet, Imm: LocalImm{LocalIdx: idx}}
}

// I32Const returns i32.const v.
func I32Const(v int32) Instruction {
	return Instruction{Opcode: OpI32Const, Imm: I32Imm{Value: v}}
}

// I64Const returns i64.const v.
func I64Const(v int64) Instruction {
	return Instruction{Opcode: OpI64Const, Imm: I64Imm{Value: v}}
}

// F32Const returns f32.const with the given bit pattern.
func F32Const(bits uint32) Instruction {
	return Instruction{Opcode: OpF32Const, Imm: F32Imm{Bits: bits}}
}

// F64Const returns f64.const with the given bit pattern.
func F64Const(bits uint64) Instruction {
	return Instruction{Opcode: OpF64Const, Imm: F64Imm{Bits: bits}}
}

// V128Const returns v128.const with lo in lane 0 and hi in lane 1.
func V128Const(lo, hi uint64) Instruction {
	w := binary.NewWriter()
	w.WriteU64LE(lo)
	w.WriteU64LE(hi)
	return Instruction{Opcode: OpPrefixSIMD, Imm: SIMDImm{SubOpcode: SimdV128Const, V128Bytes: w.Bytes()}}
}

// I64x2ExtractLane returns i64x2.extract_lane lane.
func I64x2ExtractLane(lane byte) Instruction {
	return Instruction{Opcode: OpPrefixSIMD, Imm: SIMDImm{SubOpcode: SimdI64x2ExtractLane, LaneIdx: lane}}
}

// Call returns call funcIdx.
func Call(funcIdx uint32) Instruction {
	return Instruction{Opcode: OpCall, Imm: CallImm{FuncIdx: funcIdx}}
}

// ReturnCall returns return_call funcIdx.
func ReturnCall(funcIdx uint32) Instruction {
	return Instruction{Opcode: OpReturnCall, Imm: CallImm{FuncIdx: funcIdx}}
}

// Op returns an instruction without immediates.
func Op(opcode byte) Instruction {
	return Instruction{Opcode: opcode}
}

// End returns the end instruction.
func End() Instruction {
	return Op(OpEnd)
}

// DecodeInstructions decodes a function body expression. Opcodes outside
// the emitted subset are rejected.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := binary.NewReader(code)
	instrs := make([]Instruction, 0, len(code)/2)

	for r.Len() > 0 {
		op, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		instr := Instruction{Opcode: op}

		switch op {
		case OpUnreachable, OpNop, OpEnd, OpReturn, OpDrop,
			OpI64Mul, OpI64Xor, OpI64ExtendI32U, OpI32ReinterpretF32, OpI64ReinterpretF64:

		case OpCall, OpReturnCall:
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			instr.Imm = CallImm{FuncIdx: idx}

		case OpLocalGet:
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			instr.Imm = LocalImm{LocalIdx: idx}

		case OpI32Const:
			v, err := r.ReadS32()
			if err != nil {
				return nil, err
			}
			instr.Imm = I32Imm{Value: v}

		case OpI64Const:
			v, err := r.ReadS64()
			if err != nil {
				return nil, err
			}
			instr.Imm = I64Imm{Value: v}

		case OpF32Const:
			bits, err := r.ReadU32LE()
			if err != nil {
				return nil, err
			}
			instr.Imm = F32Imm{Bits: bits}

		case OpF64Const:
			bits, err := r.ReadU64LE()
			if err != nil {
				return nil, err
			}
			instr.Imm = F64Imm{Bits: bits}

		case OpPrefixSIMD:
			imm, err := decodeSIMDImmediate(r)
			if err != nil {
				return nil, err
			}
			instr.Imm = imm

		default:
			return nil, fmt.Errorf("unsupported opcode 0x%02x at %d", op, r.Position()-1)
		}

		instrs = append(instrs, instr)
	}
	return instrs, nil
}

func decodeSIMDImmediate(r *binary.Reader) (SIMDImm, error) {
	sub, err := r.ReadU32()
	if err != nil {
		return SIMDImm{}, err
	}
	imm := SIMDImm{SubOpcode: sub}
	switch sub {
	case SimdV128Const:
		b, err := r.ReadBytes(16)
		if err != nil {
			return imm, err
		}
		imm.V128Bytes = append([]byte(nil), b...)
	case SimdI64x2ExtractLane, SimdI64x2ReplaceLane:
		lane, err := r.ReadByte()
		if err != nil {
			return imm, err
		}
		imm.LaneIdx = lane
	default:
		return imm, fmt.Errorf("unsupported simd opcode 0x%x", sub)
	}
	return imm, nil
}

func encodeInstruction(w *binary.Writer, instr *Instruction) {
	w.Byte(instr.Opcode)

	switch instr.Opcode {
	case OpCall, OpReturnCall:
		w.WriteU32(instr.Imm.(CallImm).FuncIdx)
	case OpLocalGet:
		w.WriteU32(instr.Imm.(LocalImm).LocalIdx)
	case OpI32Const:
		w.WriteS32(instr.Imm.(I32Imm).Value)
	case OpI64Const:
		w.WriteS64(instr.Imm.(I64Imm).Value)
	case OpF32Const:
		w.WriteU32LE(instr.Imm.(F32Imm).Bits)
	case OpF64Const:
		w.WriteU64LE(instr.Imm.(F64Imm).Bits)
	case OpPrefixSIMD:
		imm := instr.Imm.(SIMDImm)
		w.WriteU32(imm.SubOpcode)
		switch imm.SubOpcode {
		case SimdV128Const:
			w.WriteBytes(imm.V128Bytes)
		case SimdI64x2ExtractLane, SimdI64x2ReplaceLane:
			w.Byte(imm.LaneIdx)
		}
	}
}

// EncodeInstructions encodes a sequence of instructions.
func EncodeInstructions(instrs []Instruction) []byte {
	w := binary.NewWriter()
	for i := range instrs {
		encodeInstruction(w, &instrs[i])
	}
	return w.Bytes()
}
