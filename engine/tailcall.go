package engine

import (
	"fmt"
	"strconv"

	"github.com/wippyai/tailcall-stress/wasm"
)

// Rejection reasons published with EventTailCallRejected. Stack reasons
// carry the number of arguments that do not fit in registers.
const (
	ReasonDisabled       = "tail calls disabled: return_call lowered to call"
	ReasonImportedTarget = "interpreter: tail call into imported function lowered to call"
	ReasonBackend        = "backend rejected return_call"
	reasonIntStack       = "callee passes %d integer argument(s) on the stack"
	reasonFloatStack     = "callee passes %d float/vector argument(s) on the stack"
)

// hiddenParams counts the execution and module context pointers the
// compiler passes ahead of the wasm parameters.
const hiddenParams = 2

// Site is one return_call instruction and the decision taken for it.
type Site struct {
	Routine  string
	Target   string
	Reason   string
	Func     uint32
	TargetFn uint32
	Accepted bool
}

// lowering reproduces how the selected wazero engine lowers return_call.
type lowering struct {
	kind      Kind
	intRegs   int
	floatRegs int
	disabled  bool
}

func newLowering(kind Kind, goarch string, disabled bool) lowering {
	l := lowering{kind: kind, disabled: disabled, floatRegs: 8}
	switch goarch {
	case "amd64":
		l.intRegs = 9 // rax, rbx, rcx, rdi, rsi, r8-r11
	default:
		l.intRegs = 8 // x0-x7
	}
	return l
}

// decide classifies a tail call from a function into target.
func (l lowering) decide(m *wasm.Module, target uint32) (bool, string) {
	if l.disabled {
		return false, ReasonDisabled
	}
	imported := int(target) < m.NumImportedFuncs()
	if l.kind == KindInterpreter {
		if imported {
			return false, ReasonImportedTarget
		}
		return true, ""
	}

	ft := m.GetFuncType(target)
	if ft == nil {
		return false, ReasonBackend
	}
	ints, floats := hiddenParams, 0
	for _, p := range ft.Params {
		switch p {
		case wasm.ValI32, wasm.ValI64:
			ints++
		default:
			floats++
		}
	}
	if ints > l.intRegs {
		return false, fmt.Sprintf(reasonIntStack, ints-l.intRegs)
	}
	if floats > l.floatRegs {
		return false, fmt.Sprintf(reasonFloatStack, floats-l.floatRegs)
	}
	return true, ""
}

// analyze finds every return_call in m and decides each one.
func (l lowering) analyze(m *wasm.Module, module string) ([]Site, error) {
	var sites []Site
	numImported := uint32(m.NumImportedFuncs())
	for i, body := range m.Code {
		instrs, err := wasm.DecodeInstructions(body.Code)
		if err != nil {
			return nil, fmt.Errorf("function %d: %w", i, err)
		}
		fn := numImported + uint32(i)
		for _, in := range instrs {
			if in.Opcode != wasm.OpReturnCall {
				continue
			}
			target := in.Imm.(wasm.CallImm).FuncIdx
			ok, reason := l.decide(m, target)
			sites = append(sites, Site{
				Func:     fn,
				Routine:  routineName(m, module, fn),
				TargetFn: target,
				Target:   targetName(m, target),
				Accepted: ok,
				Reason:   reason,
			})
		}
	}
	return sites, nil
}

// rewriteTailCalls replaces every return_call with call followed by return.
func rewriteTailCalls(m *wasm.Module) error {
	for i := range m.Code {
		instrs, err := wasm.DecodeInstructions(m.Code[i].Code)
		if err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
		out := make([]wasm.Instruction, 0, len(instrs)+1)
		for _, in := range instrs {
			if in.Opcode == wasm.OpReturnCall {
				out = append(out, wasm.Call(in.Imm.(wasm.CallImm).FuncIdx), wasm.Op(wasm.OpReturn))
				continue
			}
			out = append(out, in)
		}
		m.Code[i].Code = wasm.EncodeInstructions(out)
	}
	return nil
}

func routineName(m *wasm.Module, module string, fn uint32) string {
	if name := m.ExportName(fn); name != "" {
		return name
	}
	return module + "#" + strconv.FormatUint(uint64(fn), 10)
}

func targetName(m *wasm.Module, fn uint32) string {
	if imp := m.ImportOf(fn); imp != nil {
		return imp.Module + "." + imp.Name
	}
	return routineName(m, "", fn)
}
