package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/espwifi/wifid/internal/log"
)

//go:generate mockgen -destination=mocks/mock_codec.go -package=mocks github.com/espwifi/wifid/internal/dispatch Codec

// Codec executes one command against the module: it formats the wire
// command for the payload, drives the transport, parses the response
// and fills the payload's output fields. The dispatcher calls it
// exactly once per request and treats it as opaque.
type Codec interface {
	Execute(ctx context.Context, p Payload) error
}

// Recorder receives one record per terminal request. Implemented by the
// audit trail; nil disables recording.
type Recorder interface {
	Record(ctx context.Context, rec Record)
}

// Record describes one completed command for the audit trail.
type Record struct {
	ID          string
	Kind        string
	Status      string
	Error       string
	Latency     time.Duration
	SubmittedAt time.Time
	CompletedAt time.Time
}

// Config holds dispatcher settings.
type Config struct {
	// QueueDepth bounds the FIFO. Submissions beyond it fail with
	// ErrQueueFull.
	QueueDepth int
}

// Dispatcher owns the codec and serializes all command execution
// through a single worker goroutine.
type Dispatcher struct {
	codec    Codec
	queue    chan *Request
	recorder Recorder
	logger   *slog.Logger

	seq     atomic.Uint64
	ready   chan struct{}
	started atomic.Bool

	// mu serializes submission against shutdown drain. Held only for
	// the O(1) enqueue, never across command execution.
	mu      sync.RWMutex
	running bool
}

// New creates a dispatcher. The worker does not run until Start.
func New(codec Codec, cfg Config, recorder Recorder) *Dispatcher {
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = 16
	}
	return &Dispatcher{
		codec:    codec,
		queue:    make(chan *Request, depth),
		recorder: recorder,
		logger:   log.WithComponent("dispatch"),
		ready:    make(chan struct{}),
	}
}

// Start runs the worker loop. It is a blocking call that returns when
// ctx is cancelled; queued requests that never executed are failed with
// ErrNotReady so every submitted request still reaches exactly one
// terminal delivery.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.codec == nil {
		return ErrNotReady
	}
	if !d.started.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already started")
	}

	d.mu.Lock()
	d.running = true
	d.mu.Unlock()
	close(d.ready)

	d.logger.Info("dispatch loop started")
	defer d.logger.Info("dispatch loop stopped")

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return ctx.Err()
		case req := <-d.queue:
			d.execute(ctx, req)
		}
	}
}

// Ready is closed once the worker loop is accepting submissions.
func (d *Dispatcher) Ready() <-chan struct{} {
	return d.ready
}

// Depth returns the number of requests waiting in the FIFO. The one
// currently executing is not counted.
func (d *Dispatcher) Depth() int {
	return len(d.queue)
}

// Do submits the payload and blocks until the request reaches a
// terminal state. The returned error is the terminal status: nil,
// ErrTimeout, or an ErrDevice-class failure. Submission failures
// (ErrNotReady, ErrQueueFull) return without anything queued.
func (d *Dispatcher) Do(p Payload, timeout time.Duration) error {
	c := waitCompletion{done: make(chan error, 1)}
	req := newRequest(p, timeout, c)
	if err := d.submit(req); err != nil {
		return err
	}
	return <-c.done
}

// Go submits the payload and returns as soon as it is enqueued. The
// terminal status is delivered by invoking fn exactly once on the
// worker goroutine, with arg passed through unchanged. A nil fn is
// legal: fire-and-forget, observable only through the payload's output
// fields. The returned error covers submission only.
func (d *Dispatcher) Go(p Payload, timeout time.Duration, fn CompleteFunc, arg any) error {
	req := newRequest(p, timeout, callbackCompletion{fn: fn, arg: arg})
	return d.submit(req)
}

// submit appends the request to the FIFO without ever blocking the
// caller on the command's outcome.
func (d *Dispatcher) submit(req *Request) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		return ErrNotReady
	}

	req.Seq = d.seq.Add(1)
	req.SubmittedAt = time.Now().UTC()

	select {
	case d.queue <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

// execute runs one request to its terminal state. The deadline timer
// starts here, when the worker picks the request up, not at submission.
func (d *Dispatcher) execute(ctx context.Context, req *Request) {
	req.setExecuting()

	logger := log.WithRequest(req.ID).With("kind", req.Payload.Kind().String(), "seq", req.Seq)
	logger.Debug("executing command", "timeout", req.Timeout)

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, req.Timeout)
	err := d.codec.Execute(cctx, req.Payload)
	cancel()
	latency := time.Since(start)

	var st Status
	switch {
	case err == nil:
		st = StatusSucceeded
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout):
		st = StatusTimedOut
		err = ErrTimeout
		logger.Warn("command timed out", "timeout", req.Timeout)
	case errors.Is(err, context.Canceled):
		// Daemon shutdown while the command was on the wire.
		st = StatusFailed
		err = ErrNotReady
	default:
		st = StatusFailed
		if !errors.Is(err, ErrDevice) {
			err = fmt.Errorf("%w: %v", ErrDevice, err)
		}
		logger.Warn("command failed", "error", err)
	}

	req.terminate(st, err)
	d.record(ctx, req, st, err, latency)

	if st == StatusSucceeded {
		logger.Debug("command succeeded", "latency_ms", latency.Milliseconds())
	}
}

// shutdown fails every request still queued. Runs on the worker
// goroutine after the loop exits; the write lock keeps new submissions
// out while the queue is drained.
func (d *Dispatcher) shutdown() {
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()

	for {
		select {
		case req := <-d.queue:
			req.terminate(StatusFailed, ErrNotReady)
		default:
			return
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, req *Request, st Status, err error, latency time.Duration) {
	if d.recorder == nil {
		return
	}

	rec := Record{
		ID:          req.ID,
		Kind:        req.Payload.Kind().String(),
		Status:      st.String(),
		Latency:     latency,
		SubmittedAt: req.SubmittedAt,
		CompletedAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	d.recorder.Record(ctx, rec)
}
