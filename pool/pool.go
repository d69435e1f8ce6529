package pool

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/tailcall-stress/abi"
	"github.com/wippyai/tailcall-stress/engine"
	"github.com/wippyai/tailcall-stress/errors"
	"github.com/wippyai/tailcall-stress/types"
)

const (
	// MaxParams bounds the length of a generated parameter list.
	MaxParams = 16

	// DefaultSize is the number of callees built when Config.Size is zero.
	DefaultSize = 10000

	// NamePrefix starts the module and routine name of every callee.
	NamePrefix = "tailcallee_"
)

// Config holds configuration for pool creation
type Config struct {
	// Contract supplies the candidate types and the stack-area estimate.
	Contract *abi.Contract

	// Engine loads callees on materialization. A pool without an engine
	// can still be planned against but not materialized.
	Engine *engine.Engine

	// Size is the number of callees. Zero selects DefaultSize.
	Size int

	// Seed is the first PCG seed word; the callee index is the second.
	Seed uint64
}

// Pool is a fixed set of pre-declared callees. Signatures and footprints
// are fixed at construction; code is emitted on first use.
type Pool struct {
	contract *abi.Contract
	engine   *engine.Engine
	callees  []*Callee
	mu       sync.Mutex
}

// New builds the pool. No code is emitted.
func New(cfg *Config) (*Pool, error) {
	if cfg == nil || cfg.Contract == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "pool requires an ABI contract")
	}
	size := cfg.Size
	if size == 0 {
		size = DefaultSize
	}
	if size < 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "pool size must be positive")
	}

	p := &Pool{
		contract: cfg.Contract,
		engine:   cfg.Engine,
		callees:  make([]*Callee, size),
	}
	for i := range p.callees {
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
		params := RandomParams(rng, cfg.Contract)
		p.callees[i] = &Callee{
			ID:     i,
			Name:   NamePrefix + strconv.Itoa(i),
			Params: params,
			Area:   cfg.Contract.ApproximateStackArea(params),
		}
	}
	Logger().Debug("callee pool built",
		zap.Int("size", size),
		zap.Stringer("convention", cfg.Contract.Convention()))
	return p, nil
}

// RandomParams draws a parameter list: length uniform in [0, MaxParams],
// each type uniform over the contract's candidates. Callers and callees
// are generated the same way.
func RandomParams(rng *rand.Rand, contract *abi.Contract) []*types.ValueType {
	cands := contract.CandidateTypes()
	n := rng.IntN(MaxParams + 1)
	params := make([]*types.ValueType, n)
	for i := range params {
		params[i] = cands[rng.IntN(len(cands))]
	}
	return params
}

// Len returns the number of callees.
func (p *Pool) Len() int {
	return len(p.callees)
}

// Callee returns the entry with the given id.
func (p *Pool) Callee(id int) (*Callee, error) {
	if id < 0 || id >= len(p.callees) {
		return nil, errors.OutOfBounds(errors.PhaseGenerate, []string{"pool"}, id, len(p.callees))
	}
	return p.callees[id], nil
}

// Eligible returns, in pool order, the callees whose footprint is strictly
// smaller than area.
func (p *Pool) Eligible(area uint32) []*Callee {
	var out []*Callee
	for _, c := range p.callees {
		if c.Area < area {
			out = append(out, c)
		}
	}
	return out
}

// Materialize emits and loads c on first use and returns its routine.
// Later calls return the same routine.
func (p *Pool) Materialize(ctx context.Context, c *Callee) (*engine.Routine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c.routine != nil {
		return c.routine, nil
	}
	if p.engine == nil {
		return nil, errors.InvalidInput(errors.PhaseCompile, "pool has no engine to materialize "+c.Name)
	}

	mod, err := p.engine.Load(ctx, c.Name, c.Module().Encode())
	if err != nil {
		return nil, err
	}
	routine, err := mod.Routine(c.Name)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	c.routine = routine
	Logger().Debug("callee materialized",
		zap.String("callee", c.Name),
		zap.Int("params", len(c.Params)),
		zap.Uint32("area", c.Area))
	return routine, nil
}
