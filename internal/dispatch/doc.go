// Package dispatch serializes command execution against the WiFi module.
//
// The module sits on a half-duplex UART and keeps per-command state, so
// no two commands may be in flight at once and response bytes must be
// attributable to exactly one command. The dispatcher guarantees this
// by construction: producers only append requests to a bounded FIFO,
// and a single worker goroutine owns the codec and transport and drains
// the FIFO one request at a time.
//
// Key properties:
//   - Strict FIFO: submission order is execution order is completion order
//   - At most one request Executing at any instant
//   - Per-request deadline started when execution begins; on expiry the
//     request terminates with ErrTimeout and the next one proceeds
//   - Exactly one terminal delivery per request: a blocking caller is
//     released, or the registered callback fires once on the worker
//     goroutine
//   - Submission never blocks on the outcome; it fails fast with
//     ErrQueueFull or ErrNotReady
//
// Two calling conventions front the same submit primitive: Do blocks
// the caller until the request reaches a terminal state; Go returns
// right after enqueueing and delivers the terminal status through an
// optional callback. Callbacks run on the worker goroutine and must not
// block or do long-running work.
//
// The only cancellation mechanism is the deadline. A caller cannot
// abort a request once submitted, and there are no retries at this
// layer.
package dispatch
