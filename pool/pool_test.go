package pool

import (
	"context"
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/tailcall-stress/abi"
	"github.com/wippyai/tailcall-stress/engine"
	"github.com/wippyai/tailcall-stress/errors"
	"github.com/wippyai/tailcall-stress/expr"
	"github.com/wippyai/tailcall-stress/types"
)

func contract(t *testing.T, conv abi.Convention) *abi.Contract {
	t.Helper()
	c, err := abi.New(conv)
	if err != nil {
		t.Fatalf("abi.New(%v): %v", conv, err)
	}
	return c
}

func names(params []*types.ValueType) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"no contract", &Config{Size: 4}},
		{"negative size", &Config{Contract: contract(t, abi.SysV64), Size: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("New succeeded")
			}
		})
	}
}

func TestNewDefaultSize(t *testing.T) {
	p, err := New(&Config{Contract: contract(t, abi.Arm64)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Len() != DefaultSize {
		t.Errorf("Len = %d, want %d", p.Len(), DefaultSize)
	}
}

func TestPoolDeterministic(t *testing.T) {
	c := contract(t, abi.SysV64)
	a, err := New(&Config{Contract: c, Size: 64, Seed: 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, _ := New(&Config{Contract: c, Size: 64, Seed: 7})
	other, _ := New(&Config{Contract: c, Size: 64, Seed: 8})

	same := true
	for i := 0; i < a.Len(); i++ {
		ca, _ := a.Callee(i)
		cb, _ := b.Callee(i)
		co, _ := other.Callee(i)
		if diff := cmp.Diff(names(ca.Params), names(cb.Params)); diff != "" {
			t.Fatalf("callee %d differs between identical pools:\n%s", i, diff)
		}
		if !slices.Equal(names(ca.Params), names(co.Params)) {
			same = false
		}
	}
	if same {
		t.Error("pools with different seeds are identical")
	}
}

func TestPoolEntries(t *testing.T) {
	for _, conv := range []abi.Convention{abi.Win86, abi.Win64, abi.SysV64, abi.Arm64} {
		t.Run(conv.String(), func(t *testing.T) {
			c := contract(t, conv)
			p, err := New(&Config{Contract: c, Size: 200})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			allowed := c.CandidateTypes()
			for i := 0; i < p.Len(); i++ {
				callee, _ := p.Callee(i)
				if callee.ID != i || callee.Name != NamePrefix+strconv.Itoa(i) {
					t.Fatalf("callee %d has id %d name %q", i, callee.ID, callee.Name)
				}
				if len(callee.Params) > MaxParams {
					t.Errorf("%s has %d params", callee.Name, len(callee.Params))
				}
				for _, pt := range callee.Params {
					if !slices.Contains(allowed, pt) {
						t.Errorf("%s uses %s, not a %v candidate", callee.Name, pt, conv)
					}
				}
				if want := c.ApproximateStackArea(callee.Params); callee.Area != want {
					t.Errorf("%s area = %d, want %d", callee.Name, callee.Area, want)
				}
				if callee.Materialized() {
					t.Errorf("%s materialized at construction", callee.Name)
				}
			}
		})
	}
}

func TestCalleeOutOfBounds(t *testing.T) {
	p, _ := New(&Config{Contract: contract(t, abi.SysV64), Size: 3})
	for _, id := range []int{-1, 3} {
		_, err := p.Callee(id)
		e, ok := err.(*errors.Error)
		if !ok {
			t.Errorf("Callee(%d) = %v, want *errors.Error", id, err)
			continue
		}
		if e.Kind != errors.KindOutOfBounds || e.Value != id {
			t.Errorf("Callee(%d): kind %s value %v", id, e.Kind, e.Value)
		}
	}
}

func TestEligibleStrictlySmaller(t *testing.T) {
	p, _ := New(&Config{Contract: contract(t, abi.Win86), Size: 500, Seed: 3})
	for _, area := range []uint32{0, 4, 16, 40, 100, 1000} {
		got := p.Eligible(area)
		prev := -1
		count := 0
		for _, c := range got {
			if c.Area >= area {
				t.Errorf("area %d: %s has footprint %d", area, c.Name, c.Area)
			}
			if c.ID <= prev {
				t.Errorf("area %d: eligible list out of pool order", area)
			}
			prev = c.ID
		}
		for i := 0; i < p.Len(); i++ {
			if c, _ := p.Callee(i); c.Area < area {
				count++
			}
		}
		if count != len(got) {
			t.Errorf("area %d: %d eligible, want %d", area, len(got), count)
		}
	}
	if got := p.Eligible(0); len(got) != 0 {
		t.Errorf("Eligible(0) returned %d callees", len(got))
	}
}

func TestMaterializeWithoutEngine(t *testing.T) {
	p, _ := New(&Config{Contract: contract(t, abi.SysV64), Size: 1})
	c, _ := p.Callee(0)
	if _, err := p.Materialize(context.Background(), c); err == nil {
		t.Error("Materialize without engine succeeded")
	}
	if c.Materialized() {
		t.Error("callee marked materialized after failure")
	}
}

func TestMaterializeFoldsParameters(t *testing.T) {
	ctx := context.Background()
	eng, err := engine.New(ctx, nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer eng.Close(ctx)

	p, err := New(&Config{Contract: contract(t, abi.SysV64), Engine: eng, Size: 40, Seed: 11})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	loads := map[string]int{}
	sub := eng.Diagnostics().Subscribe(func(ev engine.Event) { loads[ev.Module]++ }, engine.EventModuleLoaded)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < p.Len(); i++ {
		c, _ := p.Callee(i)
		t.Run(c.Name, func(t *testing.T) {
			first, err := p.Materialize(ctx, c)
			if err != nil {
				t.Fatalf("Materialize: %v", err)
			}
			again, err := p.Materialize(ctx, c)
			if err != nil {
				t.Fatalf("second Materialize: %v", err)
			}
			if first != again || c.Routine() != first {
				t.Error("materialization is not idempotent")
			}

			args := make([]types.Value, len(c.Params))
			for j, pt := range c.Params {
				args[j] = expr.SynthesizeValue(pt, rng)
			}
			out, err := first.Invoke(ctx, types.FlattenAll(args)...)
			if err != nil {
				t.Fatalf("Invoke %s: %v", c.Signature(), err)
			}
			if want := types.Fold(args); len(out) != 1 || out[0] != want {
				t.Errorf("%s = %#x, want %#x", c.Signature(), out, want)
			}
		})
	}

	sub.Close()
	if len(loads) != p.Len() {
		t.Errorf("%d callee modules loaded, want %d", len(loads), p.Len())
	}
	for name, n := range loads {
		if n != 1 {
			t.Errorf("%s loaded %d times", name, n)
		}
	}
}

func TestFoldOrderDependent(t *testing.T) {
	ctx := context.Background()
	eng, err := engine.New(ctx, nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer eng.Close(ctx)

	p, _ := New(&Config{Contract: contract(t, abi.SysV64), Engine: eng, Size: 1})
	c := p.callees[0]
	c.Params = []*types.ValueType{types.S32, types.S32}

	fn, err := p.Materialize(ctx, c)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	ab, _ := fn.Invoke(ctx, 1, 2)
	ba, _ := fn.Invoke(ctx, 2, 1)
	if ab[0] == ba[0] {
		t.Error("fold(1, 2) == fold(2, 1)")
	}
}
