package engine

import (
	"sync"
)

// EventKind identifies a diagnostic event.
type EventKind uint8

const (
	// EventModuleLoaded is published once a module is compiled and instantiated.
	EventModuleLoaded EventKind = iota + 1
	// EventTailCallAccepted reports a return_call lowered to a real tail call.
	EventTailCallAccepted
	// EventTailCallRejected reports a return_call lowered to a plain call.
	EventTailCallRejected
)

func (k EventKind) String() string {
	switch k {
	case EventModuleLoaded:
		return "module_loaded"
	case EventTailCallAccepted:
		return "tailcall_accepted"
	case EventTailCallRejected:
		return "tailcall_rejected"
	default:
		return "unknown"
	}
}

// Event is one diagnostic record. Routine names the function containing
// the call site; Reason is set on rejections.
type Event struct {
	Module  string
	Routine string
	Target  string
	Reason  string
	Kind    EventKind
}

// Handler receives events on the subscription's delivery goroutine.
type Handler func(Event)

// Diagnostics fans engine events out to subscribers. Publishing never
// blocks: each subscription buffers events in an unbounded mailbox drained
// by its own goroutine.
type Diagnostics struct {
	subs   map[*Subscription]struct{}
	mu     sync.Mutex
	closed bool
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers handler for the given kinds, or for every kind when
// none are given. The returned subscription must be closed.
func (d *Diagnostics) Subscribe(handler Handler, kinds ...EventKind) *Subscription {
	s := &Subscription{
		d:       d,
		handler: handler,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, k := range kinds {
		s.mask |= 1 << k
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		close(s.done)
		s.closed = true
		return s
	}
	d.subs[s] = struct{}{}
	d.mu.Unlock()

	go s.run()
	return s
}

func (d *Diagnostics) publish(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for s := range d.subs {
		if s.wants(ev.Kind) {
			s.enqueue(ev)
		}
	}
}

// close detaches every subscription and waits for their delivery
// goroutines to drain.
func (d *Diagnostics) close() {
	d.mu.Lock()
	d.closed = true
	subs := make([]*Subscription, 0, len(d.subs))
	for s := range d.subs {
		subs = append(subs, s)
	}
	d.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

// Subscription is a registered handler with its own delivery goroutine.
type Subscription struct {
	d       *Diagnostics
	handler Handler
	notify  chan struct{}
	done    chan struct{}
	queue   []Event
	mu      sync.Mutex
	once    sync.Once
	mask    uint32
	closed  bool
}

func (s *Subscription) wants(k EventKind) bool {
	return s.mask == 0 || s.mask&(1<<k) != 0
}

func (s *Subscription) enqueue(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	for range s.notify {
		for {
			s.mu.Lock()
			batch := s.queue
			s.queue = nil
			closed := s.closed
			s.mu.Unlock()

			if len(batch) == 0 {
				if closed {
					close(s.done)
					return
				}
				break
			}
			for _, ev := range batch {
				s.handler(ev)
			}
		}
	}
}

// Close unsubscribes and returns after every event published before the
// call has been handled.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.d.mu.Lock()
		delete(s.d.subs, s)
		s.d.mu.Unlock()

		s.mu.Lock()
		already := s.closed
		s.closed = true
		s.mu.Unlock()
		if already {
			return
		}
		s.signal()
	})
	<-s.done
}
