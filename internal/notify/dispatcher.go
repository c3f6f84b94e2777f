package notify

import (
	"context"
	"sync"
	"time"

	"github.com/park63/lead-intake/pkg/logging"
)

// FailureCounter records failed notification deliveries. Satisfied by
// metrics.IntakeMetrics; nil disables counting.
type FailureCounter interface {
	ObserveNotifyFailure()
}

// Dispatcher fans lead summaries out to sinks from a background worker, so
// webhook and email latency never sits on the submission path. Enqueue is
// non-blocking: when the buffer is full the notification is dropped with a
// warning, because lead capture must not back up behind a slow CRM.
type Dispatcher struct {
	sinks    []Sink
	ch       chan LeadSummary
	timeout  time.Duration
	failures FailureCounter
	logger   *logging.Logger
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher starts the worker. buffer <= 0 defaults to 64; failures may
// be nil.
func NewDispatcher(buffer int, sinks []Sink, failures FailureCounter, logger *logging.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		sinks:    sinks,
		ch:       make(chan LeadSummary, buffer),
		timeout:  15 * time.Second,
		failures: failures,
		logger:   logger,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue hands a summary to the worker without blocking the caller.
func (d *Dispatcher) Enqueue(summary LeadSummary) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	select {
	case d.ch <- summary:
	default:
		d.logger.Warn("notification buffer full, dropping", "source", summary.Source)
	}
	d.mu.Unlock()
}

// Close stops accepting work and waits for queued notifications to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for summary := range d.ch {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		for _, sink := range d.sinks {
			if err := sink.NotifyLead(ctx, summary); err != nil {
				d.logger.Error("lead notification failed", "error", err, "source", summary.Source)
				if d.failures != nil {
					d.failures.ObserveNotifyFailure()
				}
			}
		}
		cancel()
	}
}
