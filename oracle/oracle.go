package oracle

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/tailcall-stress/abi"
	"github.com/wippyai/tailcall-stress/engine"
	"github.com/wippyai/tailcall-stress/errors"
	"github.com/wippyai/tailcall-stress/pool"
	"github.com/wippyai/tailcall-stress/types"
)

// Outcome classifies a trial.
type Outcome uint8

const (
	// OutcomeSkipped means no callee was eligible; nothing ran.
	OutcomeSkipped Outcome = iota
	OutcomeMatch
	OutcomeMismatch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeMatch:
		return "match"
	case OutcomeMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Mismatch records a trial whose tail call disagreed with the direct call.
type Mismatch struct {
	Caller          string
	CallerSignature string
	CalleeName      string
	CalleeSignature string
	Call            string
	Trial           int
	CallerParams    int
	CalleeID        int
	CalleeParams    int
	Expected        uint64
	Actual          uint64
	Seed            uint64
}

func newMismatch(t *Trial, expected, actual uint64) *Mismatch {
	return &Mismatch{
		Trial:           t.Index,
		Seed:            t.Seed,
		Caller:          t.Name,
		CallerParams:    len(t.Params),
		CallerSignature: t.Signature(),
		CalleeID:        t.Callee.ID,
		CalleeName:      t.Callee.Name,
		CalleeParams:    len(t.Callee.Params),
		CalleeSignature: t.Callee.Signature(),
		Call:            t.String(),
		Expected:        expected,
		Actual:          actual,
	}
}

// Result is the outcome of one executed trial. Expected is the direct
// call's result, Actual the tail call's.
type Result struct {
	Trial    *Trial
	Mismatch *Mismatch
	Expected uint64
	Actual   uint64
	Outcome  Outcome
}

// Config holds configuration for oracle creation
type Config struct {
	Contract *abi.Contract
	Engine   *engine.Engine
	Pool     *pool.Pool

	// Seed is the base trial seed; trial i uses Seed+i.
	Seed uint64
}

// Oracle builds and runs differential trials.
type Oracle struct {
	contract *abi.Contract
	engine   *engine.Engine
	pool     *pool.Pool
	seed     uint64
}

// New creates an oracle. The engine may be nil when only Plan is used.
func New(cfg *Config) (*Oracle, error) {
	if cfg == nil || cfg.Contract == nil || cfg.Pool == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "oracle requires an ABI contract and a callee pool")
	}
	return &Oracle{
		contract: cfg.Contract,
		engine:   cfg.Engine,
		pool:     cfg.Pool,
		seed:     cfg.Seed,
	}, nil
}

// Plan derives trial i without emitting or running code. The same index
// always yields the same trial.
func (o *Oracle) Plan(i int) *Trial {
	return o.plan(i)
}

// Run executes trial i: the caller tail calls the callee with the
// resolved arguments, the callee is called directly with the same values
// and both results are compared. A mismatch is a result, not an error;
// errors mean the engine failed.
func (o *Oracle) Run(ctx context.Context, i int) (*Result, error) {
	t := o.plan(i)
	res := &Result{Trial: t, Outcome: OutcomeSkipped}
	if t.Skipped() {
		Logger().Debug("trial skipped", zap.Int("trial", i), zap.Uint32("area", t.Area))
		return res, nil
	}
	if o.engine == nil {
		return nil, errors.InvalidInput(errors.PhaseCompile, "oracle has no engine to run "+t.Name)
	}

	callee, err := o.pool.Materialize(ctx, t.Callee)
	if err != nil {
		return nil, err
	}

	mod, err := o.engine.Load(ctx, t.Name, t.Module().Encode())
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := mod.Close(ctx); cerr != nil {
			Logger().Warn("close caller", zap.String("caller", t.Name), zap.Error(cerr))
		}
	}()
	caller, err := mod.Routine(t.Name)
	if err != nil {
		return nil, err
	}

	actual, err := caller.Invoke(ctx, types.FlattenAll(t.Outer)...)
	if err != nil {
		return nil, err
	}
	expected, err := callee.Invoke(ctx, types.FlattenAll(t.Inner)...)
	if err != nil {
		return nil, err
	}
	res.Actual, res.Expected = actual[0], expected[0]

	if res.Actual == res.Expected {
		res.Outcome = OutcomeMatch
		return res, nil
	}
	res.Outcome = OutcomeMismatch
	res.Mismatch = newMismatch(t, res.Expected, res.Actual)
	Logger().Warn("tail call result mismatch",
		zap.Int("trial", i),
		zap.String("call", t.String()),
		zap.String("caller_signature", t.Signature()),
		zap.String("callee_signature", t.Callee.Signature()),
		zap.Uint64("expected", res.Expected),
		zap.Uint64("actual", res.Actual))
	return res, nil
}
