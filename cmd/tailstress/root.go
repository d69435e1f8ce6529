package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/tailcall-stress/abi"
	"github.com/wippyai/tailcall-stress/engine"
	"github.com/wippyai/tailcall-stress/oracle"
	"github.com/wippyai/tailcall-stress/pool"
	"github.com/wippyai/tailcall-stress/stress"
)

type rootOptions struct {
	configPath    string
	progress      string
	logLevel      string
	corpus        string
	iterations    int
	poolSize      int
	progressEvery int
	seed          uint64
	interpreter   bool
	noTailCalls   bool
	markdown      bool
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootOptions{})
}

func newRootCmdWith(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tailstress [index]",
		Short: "Differential stress tester for wasm tail calls on wazero",
		Long: `tailstress generates caller/callee pairs with random, ABI-stressing
parameter lists. Each caller tail calls its callee with return_call; the
result is compared with a direct call of the callee on the same arguments.
Tail-call decisions of the engine are collected and reported.

Without an argument a bounded loop runs. With a trial index exactly that
trial runs and its outcome is printed.

The exit status is 100 plus the number of mismatches, capped at 255.
Configuration and platform errors exit with status 1.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file (flags override file values)")
	f.IntVar(&opts.iterations, "iterations", 1000000, "bounded loop cap")
	f.IntVar(&opts.poolSize, "pool-size", 10000, "callee pool size")
	f.Uint64Var(&opts.seed, "seed", 0, "base seed")
	f.BoolVar(&opts.interpreter, "interpreter", false, "force the wazero interpreter")
	f.BoolVar(&opts.noTailCalls, "no-tail-calls", false, "disable the tail-call feature (all sites rejected)")
	f.StringVar(&opts.progress, "progress", "auto", "progress display: auto|tui|bar|log|none")
	f.IntVar(&opts.progressEvery, "progress-every", 1000, "iterations between progress updates")
	f.StringVar(&opts.corpus, "corpus", "", "record mismatches to a SQLite database")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	f.BoolVar(&opts.markdown, "markdown", false, "render the final report as markdown")

	cmd.AddCommand(newCorpusCmd())
	return cmd
}

func runRoot(cmd *cobra.Command, opts *rootOptions, args []string) error {
	contract, err := abi.Detect()
	if err != nil {
		return &exitError{err: err, code: 1}
	}

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return &exitError{err: err, code: 1}
	}

	index := -1
	if len(args) == 1 {
		index, err = strconv.Atoi(args[0])
		if err != nil || index < 0 {
			return &exitError{err: fmt.Errorf("trial index %q is not a non-negative integer", args[0]), code: 1}
		}
	}

	level, err := zapcore.ParseLevel(opts.logLevel)
	if err != nil {
		return &exitError{err: err, code: 1}
	}
	logger, err := newLogger(level)
	if err != nil {
		return &exitError{err: err, code: 1}
	}
	defer func() { _ = logger.Sync() }()
	installLogger(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := stress.New(ctx, cfg, contract)
	if err != nil {
		return &exitError{err: err, code: 1}
	}
	defer func() {
		if err := runner.Close(context.Background()); err != nil {
			logger.Warn("close runner", zap.Error(err))
		}
	}()

	var sum *stress.Summary
	if index >= 0 {
		sum, err = runSingle(ctx, runner, index, cmd.OutOrStdout())
	} else {
		sum, err = runLoop(ctx, runner, cfg, opts.progress, level)
	}
	if err != nil {
		return &exitError{err: err, code: 1}
	}

	if index < 0 || opts.markdown {
		if err := printReport(cmd.OutOrStdout(), sum, opts.markdown); err != nil {
			return &exitError{err: err, code: 1}
		}
	}
	return &exitError{code: sum.ExitCode()}
}

// resolveConfig layers explicitly set flags over the config file or the
// defaults.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (*stress.Config, error) {
	cfg := stress.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = stress.LoadConfig(opts.configPath); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("iterations") {
		cfg.Iterations = opts.iterations
	}
	if f.Changed("pool-size") {
		cfg.PoolSize = opts.poolSize
	}
	if f.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if f.Changed("progress-every") {
		cfg.ProgressEvery = opts.progressEvery
	}
	if f.Changed("corpus") {
		cfg.Corpus = opts.corpus
	}
	if f.Changed("interpreter") {
		cfg.Engine.Interpreter = opts.interpreter
	}
	if f.Changed("no-tail-calls") {
		cfg.Engine.DisableTailCalls = opts.noTailCalls
	}
	return cfg, cfg.Validate()
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	return config.Build()
}

func installLogger(l *zap.Logger) {
	engine.SetLogger(l.Named("engine"))
	pool.SetLogger(l.Named("pool"))
	oracle.SetLogger(l.Named("oracle"))
	stress.SetLogger(l.Named("stress"))
}
