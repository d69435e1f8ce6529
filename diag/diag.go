package diag

import (
	"sort"
	"strings"
	"sync"

	"github.com/wippyai/tailcall-stress/engine"
)

// Source is an event stream the listener can subscribe to.
type Source interface {
	Subscribe(handler engine.Handler, kinds ...engine.EventKind) *engine.Subscription
}

// Aggregate is a point-in-time copy of the listener's counters.
type Aggregate struct {
	Reasons   map[string]int
	Observed  int
	Succeeded int
}

// Rejected returns the number of observed tail calls that were not
// lowered as tail calls.
func (a Aggregate) Rejected() int {
	return a.Observed - a.Succeeded
}

// Reason is one entry of the rejection breakdown.
type Reason struct {
	Reason  string
	Count   int
	Percent float64
}

// Listener counts tail-call decisions for routines whose name starts with
// a prefix.
type Listener struct {
	sub     *engine.Subscription
	reasons map[string]int
	prefix  string
	mu      sync.Mutex

	observed  int
	succeeded int
}

// New subscribes a listener to the tail-call events of src.
func New(src Source, prefix string) *Listener {
	l := newListener(prefix)
	l.sub = src.Subscribe(l.handle, engine.EventTailCallAccepted, engine.EventTailCallRejected)
	return l
}

func newListener(prefix string) *Listener {
	return &Listener{prefix: prefix, reasons: make(map[string]int)}
}

func (l *Listener) handle(ev engine.Event) {
	if !strings.HasPrefix(ev.Routine, l.prefix) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	switch ev.Kind {
	case engine.EventTailCallAccepted:
		l.observed++
		l.succeeded++
	case engine.EventTailCallRejected:
		l.observed++
		l.reasons[ev.Reason]++
	}
}

// Close unsubscribes and waits until every event published so far has been
// counted.
func (l *Listener) Close() {
	if l.sub != nil {
		l.sub.Close()
	}
}

// Snapshot copies the current counters.
func (l *Listener) Snapshot() Aggregate {
	l.mu.Lock()
	defer l.mu.Unlock()
	reasons := make(map[string]int, len(l.reasons))
	for r, n := range l.reasons {
		reasons[r] = n
	}
	return Aggregate{Observed: l.observed, Succeeded: l.succeeded, Reasons: reasons}
}

// Breakdown ranks the rejection reasons by count, most frequent first,
// with ties in reason order. Percentages are of all rejections.
func (l *Listener) Breakdown() []Reason {
	return l.Snapshot().Breakdown()
}

// Breakdown ranks the aggregate's rejection reasons.
func (a Aggregate) Breakdown() []Reason {
	total := 0
	for _, n := range a.Reasons {
		total += n
	}
	out := make([]Reason, 0, len(a.Reasons))
	for r, n := range a.Reasons {
		out = append(out, Reason{Reason: r, Count: n, Percent: float64(n) * 100 / float64(total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
