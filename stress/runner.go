package stress

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/tailcall-stress/abi"
	"github.com/wippyai/tailcall-stress/corpus"
	"github.com/wippyai/tailcall-stress/diag"
	"github.com/wippyai/tailcall-stress/engine"
	"github.com/wippyai/tailcall-stress/oracle"
	"github.com/wippyai/tailcall-stress/pool"
)

// Progress is a live view of a running loop.
type Progress struct {
	Processed  int
	Total      int
	Skipped    int
	Mismatches int
	Observed   int
	Succeeded  int
}

// ProgressFunc receives progress updates on the loop goroutine.
type ProgressFunc func(Progress)

// Runner owns the engine, the callee pool and the listener for one run.
type Runner struct {
	started  time.Time
	cfg      *Config
	contract *abi.Contract
	engine   *engine.Engine
	pool     *pool.Pool
	oracle   *oracle.Oracle
	listener *diag.Listener
	store    *corpus.Store
	runID    string

	processed   int
	skipped     int
	mismatches  int
	interrupted bool
}

// New builds a runner for the given platform contract. The returned runner
// must be closed.
func New(ctx context.Context, cfg *Config, contract *abi.Contract) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eng, err := engine.New(ctx, &engine.Config{
		Interpreter:      cfg.Engine.Interpreter,
		DisableTailCalls: cfg.Engine.DisableTailCalls,
	})
	if err != nil {
		return nil, err
	}

	r := &Runner{
		started:  time.Now(),
		cfg:      cfg,
		contract: contract,
		engine:   eng,
		runID:    uuid.NewString(),
	}
	r.pool, err = pool.New(&pool.Config{Contract: contract, Engine: eng, Size: cfg.PoolSize, Seed: cfg.Seed})
	if err != nil {
		_ = eng.Close(ctx)
		return nil, err
	}
	r.oracle, err = oracle.New(&oracle.Config{Contract: contract, Engine: eng, Pool: r.pool, Seed: cfg.Seed})
	if err != nil {
		_ = eng.Close(ctx)
		return nil, err
	}
	if cfg.Corpus != "" {
		if r.store, err = corpus.Open(cfg.Corpus); err != nil {
			_ = eng.Close(ctx)
			return nil, err
		}
	}
	r.listener = diag.New(eng.Diagnostics(), oracle.NamePrefix)

	Logger().Info("run started",
		zap.String("run_id", r.runID),
		zap.Stringer("convention", contract.Convention()),
		zap.Stringer("engine", eng.Kind()),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Uint64("seed", cfg.Seed))
	return r, nil
}

// RunID identifies this run in logs and in the corpus.
func (r *Runner) RunID() string {
	return r.runID
}

// Engine returns the runner's engine.
func (r *Runner) Engine() *engine.Engine {
	return r.engine
}

// Oracle returns the runner's trial oracle.
func (r *Runner) Oracle() *oracle.Oracle {
	return r.oracle
}

// RunOne executes trial i. A skipped trial counts as a match.
func (r *Runner) RunOne(ctx context.Context, i int) (*oracle.Result, error) {
	res, err := r.oracle.Run(ctx, i)
	if err != nil {
		return nil, err
	}
	r.note(ctx, res)
	return res, nil
}

func (r *Runner) note(ctx context.Context, res *oracle.Result) {
	r.processed++
	switch res.Outcome {
	case oracle.OutcomeSkipped:
		r.skipped++
	case oracle.OutcomeMismatch:
		r.mismatches++
		if r.store == nil {
			return
		}
		if err := r.store.Record(ctx, r.runID, res.Mismatch); err != nil {
			Logger().Error("record mismatch", zap.Int("trial", res.Trial.Index), zap.Error(err))
		}
	}
}

// Run executes trials 0 to Iterations-1, stopping early when ctx is
// cancelled. Cancellation is checked before each trial; a started trial
// always completes.
func (r *Runner) Run(ctx context.Context, progress ProgressFunc) (*Summary, error) {
	trialCtx := context.WithoutCancel(ctx)
	reported := -1
	report := func() {
		if progress == nil || reported == r.processed {
			return
		}
		reported = r.processed
		progress(r.progress())
	}

	for i := 0; i < r.cfg.Iterations; i++ {
		if ctx.Err() != nil {
			r.interrupted = true
			Logger().Info("run interrupted", zap.Int("processed", r.processed))
			break
		}
		if _, err := r.RunOne(trialCtx, i); err != nil {
			return nil, err
		}
		if r.processed%r.cfg.ProgressEvery == 0 {
			report()
		}
	}
	report()
	return r.Summary(), nil
}

func (r *Runner) progress() Progress {
	agg := r.listener.Snapshot()
	return Progress{
		Processed:  r.processed,
		Total:      r.cfg.Iterations,
		Skipped:    r.skipped,
		Mismatches: r.mismatches,
		Observed:   agg.Observed,
		Succeeded:  agg.Succeeded,
	}
}

// Summary stops listening for diagnostics, waits for every pending event
// and returns the final tallies. Trials run afterwards are not observed.
func (r *Runner) Summary() *Summary {
	r.listener.Close()
	agg := r.listener.Snapshot()
	s := &Summary{
		RunID:       r.runID,
		Convention:  r.contract.Convention().String(),
		Engine:      r.engine.Kind().String(),
		Processed:   r.processed,
		Skipped:     r.skipped,
		Matched:     r.processed - r.skipped - r.mismatches,
		Mismatches:  r.mismatches,
		Observed:    agg.Observed,
		Succeeded:   agg.Succeeded,
		Rejected:    agg.Rejected(),
		Reasons:     agg.Breakdown(),
		Interrupted: r.interrupted,
		Elapsed:     time.Since(r.started),
	}
	Logger().Info("run finished",
		zap.String("run_id", r.runID),
		zap.Int("processed", s.Processed),
		zap.Int("mismatches", s.Mismatches),
		zap.Int("observed", s.Observed),
		zap.Int("succeeded", s.Succeeded))
	return s
}

// Close releases the corpus and the engine.
func (r *Runner) Close(ctx context.Context) error {
	r.listener.Close()
	var err error
	if r.store != nil {
		err = r.store.Close()
	}
	if cerr := r.engine.Close(ctx); err == nil {
		err = cerr
	}
	return err
}
