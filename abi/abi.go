package abi

import (
	"fmt"
	"runtime"

	"github.com/wippyai/tailcall-stress/errors"
	"github.com/wippyai/tailcall-stress/types"
)

// Convention identifies a native calling convention.
type Convention uint8

const (
	// Win86 is the 32-bit Windows convention: every argument on the stack.
	Win86 Convention = iota + 1
	// Win64 is the Microsoft x64 convention: one 8-byte slot per argument
	// with a 32-byte home area.
	Win64
	// SysV64 is the System V AMD64 convention: aggregates by value,
	// classified per eightbyte.
	SysV64
	// Arm64 is AAPCS64 with homogeneous floating-point aggregate rules.
	Arm64
)

func (c Convention) String() string {
	switch c {
	case Win86:
		return "win86"
	case Win64:
		return "win64"
	case SysV64:
		return "sysv64"
	case Arm64:
		return "arm64"
	default:
		return fmt.Sprintf("convention(%d)", uint8(c))
	}
}

// Contract is the immutable calling-convention model selected for a run.
// It is created once and passed explicitly to whatever needs it.
type Contract struct {
	area       func(params []*types.ValueType) uint32
	candidates []*types.ValueType
	conv       Convention
}

// New builds the contract for a convention.
func New(conv Convention) (*Contract, error) {
	c := &Contract{conv: conv}
	switch conv {
	case Win86:
		c.candidates = withoutVector(types.Scalars())
		c.area = win86Area
	case Win64:
		c.candidates = withoutVector(types.Scalars())
		c.area = win64Area
	case SysV64:
		c.candidates = types.Scalars()
		c.area = sysv64Area
	case Arm64:
		c.candidates = types.Scalars()
		c.area = arm64Area
	default:
		return nil, errors.New(errors.PhaseConfig, errors.KindUnsupported).
			Detail("unknown calling convention %s", conv).
			Build()
	}
	c.candidates = append(c.candidates, types.Aggregates()...)
	return c, nil
}

// ForPlatform selects the convention for a GOOS/GOARCH pair.
func ForPlatform(goos, goarch string) (*Contract, error) {
	switch goarch {
	case "386":
		if goos == "windows" {
			return New(Win86)
		}
	case "amd64":
		if goos == "windows" {
			return New(Win64)
		}
		return New(SysV64)
	case "arm64":
		return New(Arm64)
	}
	return nil, errors.UnsupportedPlatform(goos, goarch)
}

// Detect selects the convention of the running process.
func Detect() (*Contract, error) {
	return ForPlatform(runtime.GOOS, runtime.GOARCH)
}

// Convention returns the modeled convention.
func (c *Contract) Convention() Convention {
	return c.conv
}

// CandidateTypes returns the catalog entries usable as parameters, in a
// stable order. The returned slice is a copy.
func (c *Contract) CandidateTypes() []*types.ValueType {
	return append([]*types.ValueType(nil), c.candidates...)
}

// ApproximateStackArea estimates the bytes of stack argument area a call
// with the given parameter list needs.
func (c *Contract) ApproximateStackArea(params []*types.ValueType) uint32 {
	return c.area(params)
}

func withoutVector(ts []*types.ValueType) []*types.ValueType {
	out := ts[:0]
	for _, t := range ts {
		if t.Kind != types.KindV128 {
			out = append(out, t)
		}
	}
	return out
}
