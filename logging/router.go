package logging

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

// Router metric keys recorded when a Metrics set is attached.
const (
	MetricEventsRouted  = "log_events_routed_total"
	MetricEventsDropped = "log_events_dropped_total"
	MetricEventsDenied  = "log_events_filtered_total"
)

const maxRetryDelay = 32 * time.Second

// Router fans published events out to sinks on background workers so callers
// on the simulation goroutine never block on I/O. Severity filtering happens
// at Publish, before an event takes queue space.
type Router struct {
	cfg      Config
	clock    Clock
	fallback *log.Logger
	metrics  *Metrics
	fields   map[string]any

	queue   chan Event
	stop    chan struct{}
	workers []*sinkWorker
	wg      sync.WaitGroup
	closed  atomic.Bool

	routed   atomic.Uint64
	dropped  atomic.Uint64
	filtered atomic.Uint64
	nextWarn atomic.Int64
}

// RouterStats summarises router throughput.
type RouterStats struct {
	EventsTotal   uint64
	DroppedTotal  uint64
	FilteredTotal uint64
	Sinks         map[string]SinkStats
}

// SinkStats describes one sink worker.
type SinkStats struct {
	Written  uint64
	Failures uint64
	Dropped  uint64
}

// RouterOption customises a Router.
type RouterOption func(*Router)

// WithMetrics mirrors the router counters into m.
func WithMetrics(m *Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// NewRouter starts a router over the provided sinks. When cfg lists enabled
// sinks, only sinks with a matching name are attached.
func NewRouter(cfg Config, clock Clock, fallback *log.Logger, sinks map[string]Sink, opts ...RouterOption) (*Router, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if fallback == nil {
		fallback = log.New(os.Stderr, "[logging] ", log.LstdFlags)
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultConfig().BufferSize
	}
	r := &Router{
		cfg:      cfg,
		clock:    clock,
		fallback: fallback,
		fields:   cfg.CloneFields(),
		queue:    make(chan Event, bufferSize),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	names := make([]string, 0, len(sinks))
	for name, sink := range sinks {
		if sink == nil {
			continue
		}
		if len(cfg.EnabledSinks) > 0 && !cfg.HasSink(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	workerBuffer := min(max(bufferSize, 32), 1024)
	for _, name := range names {
		r.workers = append(r.workers, &sinkWorker{
			name:     name,
			sink:     sinks[name],
			events:   make(chan Event, workerBuffer),
			fallback: fallback,
			stop:     r.stop,
		})
	}

	r.wg.Add(1 + len(r.workers))
	go r.dispatch()
	for _, w := range r.workers {
		go func(w *sinkWorker) {
			defer r.wg.Done()
			w.run()
		}(w)
	}
	return r, nil
}

// Publish stamps and queues the event. It never blocks: a full queue drops
// the event and counts it.
func (r *Router) Publish(ctx context.Context, event Event) {
	if event.Type == "" || r.closed.Load() {
		return
	}
	if event.Severity < r.cfg.MinimumFor(event.Category) {
		r.filtered.Add(1)
		r.count(MetricEventsDenied)
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	event = mergeFields(event, r.fields)
	select {
	case r.queue <- event:
	default:
		r.dropped.Add(1)
		r.count(MetricEventsDropped)
		r.warnDrop("router", event)
	}
}

func (r *Router) dispatch() {
	defer func() {
		for _, w := range r.workers {
			close(w.events)
		}
		r.wg.Done()
	}()
	for {
		select {
		case event := <-r.queue:
			r.fanOut(event)
		case <-r.stop:
			for {
				select {
				case event := <-r.queue:
					r.fanOut(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Router) fanOut(event Event) {
	r.routed.Add(1)
	r.count(MetricEventsRouted)
	for _, w := range r.workers {
		select {
		case w.events <- cloneForFields(event):
		default:
			w.dropped.Add(1)
			r.dropped.Add(1)
			r.count(MetricEventsDropped)
			r.warnDrop(w.name, event)
		}
	}
}

func (r *Router) count(key string) {
	if r.metrics != nil {
		r.metrics.TelemetryAdd(key, 1)
	}
}

// warnDrop logs at most once per DropWarnInterval.
func (r *Router) warnDrop(where string, event Event) {
	interval := r.cfg.DropWarnInterval
	if interval <= 0 {
		interval = DefaultConfig().DropWarnInterval
	}
	now := r.clock.Now().UnixNano()
	next := r.nextWarn.Load()
	if now < next || !r.nextWarn.CompareAndSwap(next, now+interval.Nanoseconds()) {
		return
	}
	r.fallback.Printf("%s backlog full, dropping event type=%s tick=%d (dropped so far: %d)", where, event.Type, event.Tick, r.dropped.Load())
}

// Close stops intake, delivers what is already queued and closes the sinks.
// Sinks still backing off after a failure are abandoned when ctx expires.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stop)
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, w := range r.workers {
		if err := w.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:   r.routed.Load(),
		DroppedTotal:  r.dropped.Load(),
		FilteredTotal: r.filtered.Load(),
		Sinks:         make(map[string]SinkStats, len(r.workers)),
	}
	for _, w := range r.workers {
		stats.Sinks[w.name] = SinkStats{
			Written:  w.written.Load(),
			Failures: w.failures.Load(),
			Dropped:  w.dropped.Load(),
		}
	}
	return stats
}

// Sink returns the attached sink registered under name.
func (r *Router) Sink(name string) Sink {
	for _, w := range r.workers {
		if w.name == name {
			return w.sink
		}
	}
	return nil
}

type sinkWorker struct {
	name     string
	sink     Sink
	events   chan Event
	fallback *log.Logger
	stop     <-chan struct{}

	written  atomic.Uint64
	failures atomic.Uint64
	dropped  atomic.Uint64
}

// run writes events in order. After a failure it backs off exponentially
// before the next write; a closed router cuts the back-off short.
func (w *sinkWorker) run() {
	streak := 0
	for event := range w.events {
		if streak > 0 {
			delay := min(time.Duration(1<<min(streak, 5))*time.Second, maxRetryDelay)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-w.stop:
				timer.Stop()
			}
		}
		if err := w.sink.Write(event); err != nil {
			streak++
			w.failures.Add(1)
			w.fallback.Printf("sink %s failed: %v (failure %d)", w.name, err, streak)
			continue
		}
		streak = 0
		w.written.Add(1)
	}
}
