package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events when the buffer is full instead of blocking
	// the emitting request.
	DropIfFull bool
	// Critical lists event types that are never discarded for a full buffer,
	// even with DropIfFull. They wait for space until the emitter's context
	// ends.
	Critical []string
	// SinkTimeout bounds each Sink.Emit call. Zero means no deadline.
	SinkTimeout time.Duration
}

// Dispatcher hands events to a sink from a single consumer goroutine. A nil
// *Dispatcher is valid and discards everything.
type Dispatcher struct {
	sink        Sink
	queue       chan Event
	stop        chan struct{}
	consumer    sync.WaitGroup
	dropIfFull  bool
	critical    map[string]struct{}
	sinkTimeout time.Duration

	stopOnce sync.Once
	stopped  atomic.Bool

	dropMu    sync.Mutex
	dropTotal uint64
	dropByTyp map[string]uint64
}

// NewDispatcher returns nil when auditing is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:        sink,
		queue:       make(chan Event, max(cfg.BufferSize, 1)),
		stop:        make(chan struct{}),
		dropIfFull:  cfg.DropIfFull,
		critical:    make(map[string]struct{}, len(cfg.Critical)),
		sinkTimeout: cfg.SinkTimeout,
		dropByTyp:   map[string]uint64{},
	}
	for _, t := range cfg.Critical {
		d.critical[t] = struct{}{}
	}

	d.consumer.Add(1)
	go d.consume()
	return d
}

func (d *Dispatcher) consume() {
	defer d.consumer.Done()
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.stop:
			// flush what was accepted before Close
			for {
				select {
				case ev := <-d.queue:
					d.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	if d.sinkTimeout <= 0 {
		d.sink.Emit(context.Background(), ev)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
	defer cancel()
	d.sink.Emit(ctx, ev)
}

// Emit queues event. Non-critical events are dropped when the buffer is full
// and DropIfFull is set; any event is dropped when ctx ends before space
// frees up. Events emitted after Close are ignored.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.stopped.Load() {
		return
	}

	_, critical := d.critical[event.EventType]
	if d.dropIfFull && !critical {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.recordDrop(event.EventType)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.recordDrop(event.EventType)
	case <-d.stop:
	}
}

func (d *Dispatcher) recordDrop(eventType string) {
	d.dropMu.Lock()
	d.dropTotal++
	d.dropByTyp[eventType]++
	d.dropMu.Unlock()
}

// Close stops accepting events, flushes what is buffered and waits for the
// consumer to exit. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		close(d.stop)
		d.consumer.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	d.dropMu.Lock()
	defer d.dropMu.Unlock()
	return d.dropTotal
}

// DroppedByType returns a copy of the drop counts keyed by event type.
func (d *Dispatcher) DroppedByType() map[string]uint64 {
	out := map[string]uint64{}
	if d == nil {
		return out
	}
	d.dropMu.Lock()
	defer d.dropMu.Unlock()
	for k, v := range d.dropByTyp {
		out[k] = v
	}
	return out
}
