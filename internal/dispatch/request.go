package dispatch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/espwifi/wifid/internal/wifi"
	"github.com/google/uuid"
)

// Kind tags the command a request carries.
type Kind int

const (
	KindGetAPAddrs Kind = iota
	KindSetAPAddrs
	KindGetAPMAC
	KindSetAPMAC
	KindConfigureAP
	KindListStations
	KindDisconnectStation
)

func (k Kind) String() string {
	switch k {
	case KindGetAPAddrs:
		return "getAPAddrs"
	case KindSetAPAddrs:
		return "setAPAddrs"
	case KindGetAPMAC:
		return "getAPMAC"
	case KindSetAPMAC:
		return "setAPMAC"
	case KindConfigureAP:
		return "configureAP"
	case KindListStations:
		return "listStations"
	case KindDisconnectStation:
		return "disconnectStation"
	}
	return "unknown"
}

// Status tracks a request through its lifecycle. Transitions only move
// forward: Pending → Executing → one terminal state.
type Status int32

const (
	StatusPending Status = iota
	StatusExecuting
	StatusSucceeded
	StatusFailed
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusExecuting:
		return "executing"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusTimedOut
}

// Payload is one command's variant-specific data. Input addresses are
// held by value, so they are copied out of the caller's variables when
// the payload is built. Output fields are caller-owned destinations the
// worker writes only on success.
type Payload interface {
	Kind() Kind
}

// GetAPAddrs reads the AP interface addresses into Out.
type GetAPAddrs struct {
	Out *wifi.APAddrs
}

func (GetAPAddrs) Kind() Kind { return KindGetAPAddrs }

// SetAPAddrs writes the AP interface addresses. Gateway and netmask are
// optional; the module picks defaults when absent.
type SetAPAddrs struct {
	IP         wifi.IPv4
	Gateway    wifi.IPv4
	Netmask    wifi.IPv4
	HasGateway bool
	HasNetmask bool
}

func (SetAPAddrs) Kind() Kind { return KindSetAPAddrs }

// GetAPMAC reads the AP radio's MAC into Out.
type GetAPMAC struct {
	Out *wifi.MAC
}

func (GetAPMAC) Kind() Kind { return KindGetAPMAC }

// SetAPMAC writes the AP radio's MAC. The module persists it to
// non-volatile storage, so this uses the long deadline class.
type SetAPMAC struct {
	MAC wifi.MAC
}

func (SetAPMAC) Kind() Kind { return KindSetAPMAC }

// ConfigureAP reconfigures the soft access point. Persisted by the
// module, long deadline class. SSID and passphrase are strings; Go
// strings are immutable, so holding them here cannot be invalidated by
// the caller between submission and execution.
type ConfigureAP struct {
	Config wifi.APConfig
}

func (ConfigureAP) Kind() Kind { return KindConfigureAP }

// ListStations fills Out with connected stations, capped at len(Out),
// and writes the number filled to Found. Found is zeroed by the command
// layer before submission so an early failure reads as zero stations.
type ListStations struct {
	Out   []wifi.Station
	Found *int
}

func (ListStations) Kind() Kind { return KindListStations }

// DisconnectStation kicks one station off the access point.
type DisconnectStation struct {
	MAC wifi.MAC
}

func (DisconnectStation) Kind() Kind { return KindDisconnectStation }

// CompleteFunc is invoked exactly once with the request's terminal
// status and the caller-supplied argument. It runs on the worker
// goroutine: keep it short and never block in it.
type CompleteFunc func(err error, arg any)

// completion is the strategy for delivering a terminal status: release
// a blocked caller, or invoke a registered callback. Selected once at
// construction, never changed.
type completion interface {
	deliver(err error)
}

// waitCompletion releases a caller blocked on done.
type waitCompletion struct {
	done chan error
}

func (w waitCompletion) deliver(err error) {
	w.done <- err
}

// callbackCompletion invokes fn with the caller's opaque argument.
// A nil fn is legal and means fire-and-forget.
type callbackCompletion struct {
	fn  CompleteFunc
	arg any
}

func (c callbackCompletion) deliver(err error) {
	if c.fn != nil {
		c.fn(err, c.arg)
	}
}

// Request is one pending command. Built by the command layer, consumed
// by the worker. The status field is write-once terminal; the worker is
// its sole writer.
type Request struct {
	ID          string
	Seq         uint64
	Payload     Payload
	Timeout     time.Duration
	SubmittedAt time.Time

	status   atomic.Int32
	complete completion
	once     sync.Once
}

func newRequest(p Payload, timeout time.Duration, c completion) *Request {
	return &Request{
		ID:      uuid.NewString(),
		Payload: p,
		Timeout: timeout,

		complete: c,
	}
}

// Status returns the request's current lifecycle state. Safe to call
// from any goroutine.
func (r *Request) Status() Status {
	return Status(r.status.Load())
}

func (r *Request) setExecuting() {
	r.status.Store(int32(StatusExecuting))
}

// terminate moves the request to a terminal state and delivers the
// outcome. The sync.Once makes exactly-once delivery structural rather
// than a convention.
func (r *Request) terminate(st Status, err error) {
	r.once.Do(func() {
		r.status.Store(int32(st))
		r.complete.deliver(err)
	})
}
