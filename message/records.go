package message

import (
	"strconv"
	"time"

	"wsrpc/codec"
)

// ConnectionState mirrors the transport's observable lifecycle state, per
// spec.md §3.
type ConnectionState int

const (
	StateClosed ConnectionState = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// ErrorKind classifies a call failure the way spec.md §7 names them.
type ErrorKind int

const (
	KindNotConnected ErrorKind = iota
	KindTimeout
	KindRPCError
	KindConnectionClosed
	KindSerializationError
	KindDeserializationError
	// KindRateLimited is additive (SPEC_FULL §7): the outbound rate-limit
	// interceptor rejected the call before it reached the wire.
	KindRateLimited
)

// CallError is the error type every rejected request/notify/stream call
// carries, tagged with one of the ErrorKind values above.
type CallError struct {
	Kind    ErrorKind
	Message string
	Code    int64 // only meaningful for KindRPCError
	HasCode bool
	Data    codec.Value
	HasData bool
}

func (e *CallError) Error() string {
	if e.Kind == KindRPCError && e.HasCode {
		return formatRPCError(e.Code, e.Message)
	}
	return e.Message
}

func formatRPCError(code int64, msg string) string {
	return msg + " (code " + strconv.FormatInt(code, 10) + ")"
}

// PendingRequest is the bookkeeping record for one outstanding, non-stream
// request, per spec.md §3. Completion happens exactly once, either by the
// matching response, by the timer, or by a connection-closed purge, never
// more than one: the session removes the record from its pending table
// under its mutex before completing it, so only the path that removed it
// calls Complete or Fail. The completed flag makes any repeated call a
// no-op.
type PendingRequest struct {
	ID          codec.Value
	SentAt      time.Time
	Done        chan struct{}
	result      codec.Value
	err         *CallError
	completed   bool
	cancelTimer func()
}

// NewPendingRequest creates a record with its completion channel armed.
func NewPendingRequest(id codec.Value, sentAt time.Time, cancelTimer func()) *PendingRequest {
	return &PendingRequest{
		ID:          id,
		SentAt:      sentAt,
		Done:        make(chan struct{}),
		cancelTimer: cancelTimer,
	}
}

// Complete resolves the record with a success result. A second call is a
// no-op. The completed flag is not itself goroutine-safe; the session
// calls Complete/Fail without holding its mutex and relies on having
// removed the record from its table first, so only one goroutine reaches
// this record.
func (p *PendingRequest) Complete(result codec.Value) {
	if p.completed {
		return
	}
	p.completed = true
	p.result = result
	if p.cancelTimer != nil {
		p.cancelTimer()
	}
	close(p.Done)
}

// Fail resolves the record with a failure. Same single-shot contract as
// Complete.
func (p *PendingRequest) Fail(err *CallError) {
	if p.completed {
		return
	}
	p.completed = true
	p.err = err
	if p.cancelTimer != nil {
		p.cancelTimer()
	}
	close(p.Done)
}

// Result returns the outcome after Done is closed.
func (p *PendingRequest) Result() (codec.Value, *CallError) {
	return p.result, p.err
}

// StreamHandler is invoked, zero or more times, for every inbound frame
// correlated to a stream subscription.
type StreamHandler func(codec.Value)

// StreamSubscription is a long-lived id registration, per spec.md §3. Once
// Closed is true, Dispatch is a no-op even for frames already in flight —
// late frames with this id are dropped silently.
type StreamSubscription struct {
	ID      codec.Value
	Handler StreamHandler
	Closed  bool
}

// Dispatch invokes the handler unless the subscription is already closed.
func (s *StreamSubscription) Dispatch(v codec.Value) {
	if s.Closed {
		return
	}
	s.Handler(v)
}

// Stats is an immutable snapshot of the session's performance counters,
// per spec.md §3.
type Stats struct {
	RequestsSent        uint64
	ResponsesReceived   uint64
	Timeouts            uint64
	Errors              uint64
	ReconnectCount      uint64
	AverageResponseTime time.Duration
	PendingRequests     int
}
