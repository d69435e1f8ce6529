package expr

import (
	"math"
	"math/rand/v2"

	"github.com/wippyai/tailcall-stress/types"
)

// floatRange bounds synthesized floats so values stay finite and printable.
const floatRange = 1e6

// Synthesize draws a random literal of type t.
func Synthesize(t *types.ValueType, rng *rand.Rand) *Literal {
	return &Literal{Value: SynthesizeValue(t, rng)}
}

// SynthesizeValue draws a random value of type t: u8 in [0, 255], signed
// integers over their full range, floats finite in ±1e6, v128 as two
// random lanes. Aggregates are built field by field through Construct.
func SynthesizeValue(t *types.ValueType, rng *rand.Rand) types.Value {
	switch t.Kind {
	case types.KindU8:
		return types.Scalar(t, uint64(rng.IntN(256)))
	case types.KindS16, types.KindS32:
		return types.Scalar(t, uint64(rng.Uint32()))
	case types.KindS64:
		return types.Scalar(t, rng.Uint64())
	case types.KindF32:
		f := float32((rng.Float64()*2 - 1) * floatRange)
		return types.Scalar(t, uint64(math.Float32bits(f)))
	case types.KindF64:
		f := (rng.Float64()*2 - 1) * floatRange
		return types.Scalar(t, math.Float64bits(f))
	case types.KindV128:
		return types.Vector(rng.Uint64(), rng.Uint64())
	default:
		fields := make([]types.Value, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = SynthesizeValue(f.Type, rng)
		}
		return t.Construct(fields)
	}
}

// Candidates lists the expressions that obtain a value of type target from
// the caller's parameters without synthesizing anything: direct forwards
// first, then one-level field projections, each in parameter order.
func Candidates(target *types.ValueType, params []*types.ValueType) []Expr {
	var forwards, projections []Expr
	for i, p := range params {
		if p == target {
			forwards = append(forwards, NewArgRef(i, p))
		}
		for j, f := range p.Fields {
			if f.Type == target {
				projections = append(projections, NewFieldProj(NewArgRef(i, p), j))
			}
		}
	}
	return append(forwards, projections...)
}

// Resolve picks a candidate uniformly at random, falling back to a fresh
// literal when none exists.
func Resolve(target *types.ValueType, params []*types.ValueType, rng *rand.Rand) Expr {
	cands := Candidates(target, params)
	if len(cands) == 0 {
		return Synthesize(target, rng)
	}
	return cands[rng.IntN(len(cands))]
}

// IsForward reports whether e obtains its value from caller parameters
// only, with no literal involved.
func IsForward(e Expr) bool {
	switch x := e.(type) {
	case *ArgRef:
		return true
	case *FieldProj:
		return IsForward(x.Base)
	default:
		return false
	}
}
