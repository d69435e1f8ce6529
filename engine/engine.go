package engine

import (
	"context"
	"runtime"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"
	"golang.org/x/sys/cpu"

	"github.com/wippyai/tailcall-stress/errors"
	"github.com/wippyai/tailcall-stress/wasm"
)

// Kind identifies the wazero execution engine in use.
type Kind uint8

const (
	KindCompiler Kind = iota + 1
	KindInterpreter
)

func (k Kind) String() string {
	switch k {
	case KindCompiler:
		return "compiler"
	case KindInterpreter:
		return "interpreter"
	default:
		return "unknown"
	}
}

// Config holds configuration for engine creation
type Config struct {
	// Interpreter forces the wazero interpreter even where the compiler
	// is available.
	Interpreter bool

	// DisableTailCalls turns the tail-call proposal off. Modules are still
	// accepted: every return_call is rewritten to call + return and reported
	// as rejected.
	DisableTailCalls bool
}

// Engine owns a wazero runtime, loads generated modules into it and
// reports what happened to their tail calls.
type Engine struct {
	runtime  wazero.Runtime
	diag     *Diagnostics
	lowering lowering
	cfg      Config
	kind     Kind
}

// New creates an engine with the given configuration. A nil cfg selects
// the defaults.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}

	kind := KindCompiler
	if c.Interpreter || !compilerSupported(runtime.GOOS, runtime.GOARCH) {
		kind = KindInterpreter
	}

	var runtimeCfg wazero.RuntimeConfig
	if kind == KindCompiler {
		runtimeCfg = wazero.NewRuntimeConfigCompiler()
	} else {
		runtimeCfg = wazero.NewRuntimeConfigInterpreter()
	}
	features := api.CoreFeaturesV2
	if !c.DisableTailCalls {
		features |= experimental.CoreFeaturesTailCall
	}
	runtimeCfg = runtimeCfg.WithCoreFeatures(features)

	e := &Engine{
		runtime:  wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		diag:     newDiagnostics(),
		lowering: newLowering(kind, runtime.GOARCH, c.DisableTailCalls),
		cfg:      c,
		kind:     kind,
	}
	Logger().Debug("engine created",
		zap.Stringer("kind", kind),
		zap.Bool("tail_calls", !c.DisableTailCalls))
	return e, nil
}

// compilerSupported mirrors wazero's own platform check so the engine kind
// is known without probing the runtime.
func compilerSupported(goos, goarch string) bool {
	switch goos {
	case "linux", "darwin", "freebsd", "netbsd", "dragonfly", "windows":
		if goarch == "arm64" {
			return true
		}
		return goarch == "amd64" && cpu.X86.HasSSE41
	case "solaris", "illumos":
		return goarch == "amd64" && cpu.X86.HasSSE41
	default:
		return false
	}
}

// Kind returns the execution engine in use.
func (e *Engine) Kind() Kind {
	return e.kind
}

// Diagnostics returns the engine's event stream.
func (e *Engine) Diagnostics() *Diagnostics {
	return e.diag
}

// Load compiles and instantiates bin as a module called name. Tail-call
// sites are analysed and reported on the diagnostic stream once the module
// is live.
func (e *Engine) Load(ctx context.Context, name string, bin []byte) (*Module, error) {
	mod, err := wasm.ParseModule(bin)
	if err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(name).
			Cause(err).
			Detail("parse module").
			Build()
	}

	sites, err := e.lowering.analyze(mod, name)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "analyse "+name)
	}

	if e.cfg.DisableTailCalls && len(sites) > 0 {
		if bin, err = lowerTailCalls(mod); err != nil {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindInvalidData, err, "rewrite "+name)
		}
	}

	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil && len(sites) > 0 && !e.cfg.DisableTailCalls {
		Logger().Debug("return_call rejected by compiler, retrying with plain calls",
			zap.String("module", name), zap.Error(err))
		fallback, rerr := lowerTailCalls(mod)
		if rerr != nil {
			return nil, errors.Backend(errors.PhaseCompile, name, err)
		}
		for i := range sites {
			sites[i].Accepted = false
			sites[i].Reason = ReasonBackend
		}
		compiled, err = e.runtime.CompileModule(ctx, fallback)
	}
	if err != nil {
		return nil, errors.Backend(errors.PhaseCompile, name, err)
	}

	inst, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Instantiation(name, err)
	}

	Logger().Debug("module loaded", zap.String("module", name), zap.Int("tail_calls", len(sites)))
	e.diag.publish(Event{Kind: EventModuleLoaded, Module: name})
	for _, s := range sites {
		ev := Event{Module: name, Routine: s.Routine, Target: s.Target}
		if s.Accepted {
			ev.Kind = EventTailCallAccepted
		} else {
			ev.Kind = EventTailCallRejected
			ev.Reason = s.Reason
			Logger().Debug("tail call rejected",
				zap.String("routine", s.Routine),
				zap.String("target", s.Target),
				zap.String("reason", s.Reason))
		}
		e.diag.publish(ev)
	}

	return &Module{name: name, compiled: compiled, instance: inst, sites: sites}, nil
}

func lowerTailCalls(mod *wasm.Module) ([]byte, error) {
	if err := rewriteTailCalls(mod); err != nil {
		return nil, err
	}
	return mod.Encode(), nil
}

// Close releases every module and the runtime, then drains and detaches
// all diagnostic subscriptions.
func (e *Engine) Close(ctx context.Context) error {
	err := e.runtime.Close(ctx)
	e.diag.close()
	return err
}

// Module is an instantiated wasm module.
type Module struct {
	compiled wazero.CompiledModule
	instance api.Module
	name     string
	sites    []Site
}

// Name returns the module's registered name.
func (m *Module) Name() string {
	return m.name
}

// Sites returns the tail-call decisions taken when the module was loaded.
func (m *Module) Sites() []Site {
	return append([]Site(nil), m.sites...)
}

// Routine returns the exported function called name.
func (m *Module) Routine(name string) (*Routine, error) {
	fn := m.instance.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseInstantiate, "routine", m.name+"."+name)
	}
	return &Routine{fn: fn, module: m.name, name: name}, nil
}

// Close releases the instance and its compiled code. The module name
// becomes available again.
func (m *Module) Close(ctx context.Context) error {
	err := m.instance.Close(ctx)
	if cerr := m.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// Routine is an invokable exported function.
type Routine struct {
	fn     api.Function
	module string
	name   string
}

// Name returns the export name.
func (r *Routine) Name() string {
	return r.name
}

// Params returns the wasm parameter types of the routine.
func (r *Routine) Params() []api.ValueType {
	return r.fn.Definition().ParamTypes()
}

// Invoke calls the routine with flattened call slots.
func (r *Routine) Invoke(ctx context.Context, slots ...uint64) ([]uint64, error) {
	results, err := r.fn.Call(ctx, slots...)
	if err != nil {
		return nil, errors.Backend(errors.PhaseExecute, r.module+"."+r.name, err)
	}
	return results, nil
}
