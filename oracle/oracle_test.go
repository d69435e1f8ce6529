package oracle

import (
	"context"
	"runtime"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/tailcall-stress/abi"
	"github.com/wippyai/tailcall-stress/engine"
	"github.com/wippyai/tailcall-stress/expr"
	"github.com/wippyai/tailcall-stress/pool"
	"github.com/wippyai/tailcall-stress/types"
	"github.com/wippyai/tailcall-stress/wasm"
)

func newOracle(t *testing.T, conv abi.Convention, eng *engine.Engine) *Oracle {
	t.Helper()
	c, err := abi.New(conv)
	if err != nil {
		t.Fatalf("abi.New: %v", err)
	}
	p, err := pool.New(&pool.Config{Contract: c, Engine: eng, Size: 300, Seed: 5})
	if err != nil {
		t.Fatalf("pool.New: %v", err)
	}
	o, err := New(&Config{Contract: c, Engine: eng, Pool: p, Seed: 1000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

// digest flattens the observable parts of a trial for comparison.
func digest(tr *Trial) []string {
	out := []string{tr.String()}
	for _, v := range tr.Outer {
		out = append(out, v.String())
	}
	for _, v := range tr.Inner {
		out = append(out, v.String())
	}
	return out
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) succeeded")
	}
	if _, err := New(&Config{}); err == nil {
		t.Error("New without contract and pool succeeded")
	}
}

func TestPlanDeterministic(t *testing.T) {
	a := newOracle(t, abi.SysV64, nil)
	b := newOracle(t, abi.SysV64, nil)
	for i := 0; i < 100; i++ {
		if diff := cmp.Diff(digest(a.Plan(i)), digest(b.Plan(i))); diff != "" {
			t.Fatalf("trial %d differs between runs (-a +b):\n%s", i, diff)
		}
	}
}

func TestPlanInvariants(t *testing.T) {
	for _, conv := range []abi.Convention{abi.Win86, abi.Win64, abi.SysV64, abi.Arm64} {
		t.Run(conv.String(), func(t *testing.T) {
			o := newOracle(t, conv, nil)
			planned := 0
			for i := 0; i < 300; i++ {
				tr := o.Plan(i)
				if tr.Name != NamePrefix+strconv.Itoa(i) || tr.Index != i {
					t.Fatalf("trial %d named %q", i, tr.Name)
				}
				if tr.Skipped() {
					if len(o.pool.Eligible(tr.Area)) != 0 {
						t.Errorf("trial %d skipped with eligible callees", i)
					}
					continue
				}
				planned++
				if tr.Callee.Area >= tr.Area {
					t.Errorf("trial %d: callee area %d not below caller area %d", i, tr.Callee.Area, tr.Area)
				}
				if len(tr.Args) != len(tr.Callee.Params) || len(tr.Inner) != len(tr.Args) {
					t.Fatalf("trial %d: %d args for %d callee params", i, len(tr.Args), len(tr.Callee.Params))
				}
				for j, a := range tr.Args {
					if a.Type() != tr.Callee.Params[j] {
						t.Errorf("trial %d arg %d: type %s, want %s", i, j, a.Type(), tr.Callee.Params[j])
					}
					if tr.Inner[j].Type != tr.Callee.Params[j] {
						t.Errorf("trial %d inner %d: type %s", i, j, tr.Inner[j].Type)
					}
					if !tr.Inner[j].Equal(a.Get(tr.Outer)) {
						t.Errorf("trial %d inner %d does not match its expression", i, j)
					}
				}
			}
			if planned == 0 {
				t.Error("every trial was skipped")
			}
		})
	}
}

func TestPlanSkipsZeroArea(t *testing.T) {
	o := newOracle(t, abi.SysV64, nil)
	found := false
	for i := 0; i < 1000 && !found; i++ {
		tr := o.Plan(i)
		if tr.Area != 0 {
			continue
		}
		found = true
		if !tr.Skipped() {
			t.Errorf("trial %d with zero area picked %s", i, tr.Callee.Name)
		}
		res, err := o.Run(context.Background(), i)
		if err != nil {
			t.Fatalf("Run skipped trial: %v", err)
		}
		if res.Outcome != OutcomeSkipped || res.Mismatch != nil {
			t.Errorf("outcome = %v, want skipped", res.Outcome)
		}
	}
	if !found {
		t.Fatal("no zero-area trial in the first 1000")
	}
}

func TestTrialModule(t *testing.T) {
	o := newOracle(t, abi.Arm64, nil)
	var tr *Trial
	for i := 0; tr == nil; i++ {
		if p := o.Plan(i); !p.Skipped() {
			tr = p
		}
	}
	m, err := wasm.ParseModule(tr.Module().Encode())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	imp := m.ImportOf(0)
	if imp == nil || imp.Module != tr.Callee.Name || imp.Name != tr.Callee.Name {
		t.Fatalf("import = %+v, want %s", imp, tr.Callee.Name)
	}
	if m.ExportName(1) != tr.Name {
		t.Errorf("export = %q, want %q", m.ExportName(1), tr.Name)
	}
	if diff := cmp.Diff(types.LowerAll(tr.Params), m.GetFuncType(1).Params); diff != "" {
		t.Errorf("caller params (-want +got):\n%s", diff)
	}
	instrs, err := wasm.DecodeInstructions(m.Code[0].Code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	n := len(instrs)
	if n < 2 || instrs[n-2].Opcode != wasm.OpReturnCall || instrs[n-1].Opcode != wasm.OpEnd {
		t.Errorf("body does not end in return_call; end: %+v", instrs)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OutcomeSkipped, "skipped"},
		{OutcomeMatch, "match"},
		{OutcomeMismatch, "mismatch"},
		{Outcome(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d) = %q, want %q", tt.o, got, tt.want)
		}
	}
}

func TestNewMismatch(t *testing.T) {
	callee := &pool.Callee{ID: 4, Name: "tailcallee_4", Params: []*types.ValueType{types.S32}}
	tr := &Trial{
		Index:  9,
		Seed:   1009,
		Name:   "tailcaller_9",
		Params: []*types.ValueType{types.S32, types.HFA2F},
		Callee: callee,
		Args:   []expr.Expr{expr.NewArgRef(0, types.S32)},
	}
	got := newMismatch(tr, 1, 2)
	want := &Mismatch{
		Trial:           9,
		Seed:            1009,
		Caller:          "tailcaller_9",
		CallerParams:    2,
		CallerSignature: "func(p0: s32, p1: hfa2f) -> u64",
		CalleeID:        4,
		CalleeName:      "tailcallee_4",
		CalleeParams:    1,
		CalleeSignature: "func(p0: s32) -> u64",
		Call:            "tailcaller_9(s32, hfa2f) -> tailcallee_4(arg0)",
		Expected:        1,
		Actual:          2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch record (-want +got):\n%s", diff)
	}
}

func newEngine(t *testing.T, cfg *engine.Config) *engine.Engine {
	t.Helper()
	ctx := context.Background()
	eng, err := engine.New(ctx, cfg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { eng.Close(ctx) })
	return eng
}

// Without real tail calls the caller's result is the direct call's result,
// so any mismatch here is a harness defect.
func TestRunMatchesWithoutTailCalls(t *testing.T) {
	tests := []struct {
		name string
		cfg  *engine.Config
	}{
		{"tail calls disabled", &engine.Config{DisableTailCalls: true}},
		{"interpreter", &engine.Config{Interpreter: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			o := newOracle(t, abi.SysV64, newEngine(t, tt.cfg))
			ran, forwarding := 0, 0
			for i := 0; i < 60; i++ {
				res, err := o.Run(ctx, i)
				if err != nil {
					t.Fatalf("trial %d: %v", i, err)
				}
				switch res.Outcome {
				case OutcomeSkipped:
					continue
				case OutcomeMismatch:
					t.Errorf("trial %d mismatched: %+v", i, res.Mismatch)
				}
				ran++
				if res.Trial.Forwarding() {
					forwarding++
				}
				if want := types.Fold(res.Trial.Inner); res.Expected != want {
					t.Errorf("trial %d: direct call = %#x, fold = %#x", i, res.Expected, want)
				}
			}
			if ran == 0 {
				t.Fatal("no trial ran")
			}
			t.Logf("%d trials ran, %d forwarding only", ran, forwarding)
		})
	}
}

// On the default engine mismatches are findings, not failures: the direct
// call must still agree with the fold and every mismatch must be recorded.
func TestRunRecordsMismatches(t *testing.T) {
	ctx := context.Background()
	o := newOracle(t, abi.SysV64, newEngine(t, nil))
	for i := 0; i < 60; i++ {
		res, err := o.Run(ctx, i)
		if err != nil {
			t.Fatalf("trial %d: %v", i, err)
		}
		if res.Outcome == OutcomeSkipped {
			continue
		}
		if want := types.Fold(res.Trial.Inner); res.Expected != want {
			t.Errorf("trial %d: direct call = %#x, fold = %#x", i, res.Expected, want)
		}
		mismatched := res.Actual != res.Expected
		if mismatched != (res.Outcome == OutcomeMismatch) {
			t.Errorf("trial %d: outcome %v for actual %#x expected %#x", i, res.Outcome, res.Actual, res.Expected)
		}
		if mismatched {
			m := res.Mismatch
			if m == nil || m.Trial != i || m.Expected != res.Expected || m.Actual != res.Actual {
				t.Errorf("trial %d: mismatch record %+v", i, m)
			}
		} else if res.Mismatch != nil {
			t.Errorf("trial %d: matching trial carries a mismatch record", i)
		}
	}

	// Caller modules are closed after each trial, so a trial can run again.
	for i := 0; i < 60; i++ {
		if !o.Plan(i).Skipped() {
			if _, err := o.Run(ctx, i); err != nil {
				t.Fatalf("rerun trial %d: %v", i, err)
			}
			break
		}
	}
}

// Trials 44 and 50 (seed 1000, pool seed 5, 300 callees) return wrong
// results through real return_call into an imported callee on the amd64
// compiler of the pinned wazero release, and agree everywhere else.
func TestRunDetectsCompilerMismatch(t *testing.T) {
	ctx := context.Background()
	reference := newOracle(t, abi.SysV64, newEngine(t, &engine.Config{DisableTailCalls: true}))
	eng := newEngine(t, nil)
	o := newOracle(t, abi.SysV64, eng)

	for _, i := range []int{44, 50} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			ref, err := reference.Run(ctx, i)
			if err != nil {
				t.Fatalf("reference run: %v", err)
			}
			if ref.Outcome != OutcomeMatch {
				t.Fatalf("reference outcome = %v, want match", ref.Outcome)
			}

			res, err := o.Run(ctx, i)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if res.Expected != ref.Expected {
				t.Errorf("direct call %#x differs from reference %#x", res.Expected, ref.Expected)
			}
			if eng.Kind() != engine.KindCompiler || runtime.GOARCH != "amd64" {
				t.Skipf("only reproduces on the amd64 compiler, got %s/%s", eng.Kind(), runtime.GOARCH)
			}
			if res.Outcome != OutcomeMismatch || res.Mismatch == nil {
				t.Fatalf("outcome = %v, want mismatch", res.Outcome)
			}
			if res.Mismatch.Expected != ref.Expected || res.Mismatch.Actual == ref.Expected {
				t.Errorf("mismatch record %+v", res.Mismatch)
			}
		})
	}
}

func TestRunWithoutEngine(t *testing.T) {
	o := newOracle(t, abi.SysV64, nil)
	for i := 0; i < 100; i++ {
		if o.Plan(i).Skipped() {
			continue
		}
		if _, err := o.Run(context.Background(), i); err == nil {
			t.Error("Run without engine succeeded")
		}
		return
	}
}
