package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering.
//
// BufferSize is the channel capacity between producers and the delivery
// goroutine. DropIfFull selects non-blocking emission: when the buffer is
// full the event is counted as dropped instead of stalling the caller.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher relays events to a sink from a dedicated goroutine so that
// session operations never wait on sink latency. A nil *Dispatcher is valid
// and inert, which is how disabled audit is represented.
type Dispatcher struct {
	cfg  Config
	sink Sink

	events   chan Event
	shutdown chan struct{}
	drained  sync.WaitGroup

	dropped atomic.Uint64
	closing atomic.Bool
	once    sync.Once
}

// NewDispatcher starts the delivery goroutine. It returns nil when audit is
// disabled; callers hold the nil and every method stays safe to invoke.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:      cfg,
		sink:     sink,
		events:   make(chan Event, cfg.BufferSize),
		shutdown: make(chan struct{}),
	}

	d.drained.Add(1)
	go d.deliver()

	return d
}

func (d *Dispatcher) deliver() {
	defer d.drained.Done()

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.shutdown:
			// Flush whatever producers enqueued before Close.
			for {
				select {
				case event := <-d.events:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit enqueues one event. Under DropIfFull a saturated buffer increments
// the dropped counter; otherwise the caller blocks until there is room or
// the context or dispatcher ends.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.events <- event:
		case <-d.shutdown:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.shutdown:
	}
}

// Close stops accepting events, flushes the buffer, and waits for the
// delivery goroutine to exit. Safe to call more than once and on nil.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closing.Store(true)
		close(d.shutdown)
		d.drained.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
