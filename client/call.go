package client

import (
	"context"
	"time"

	"wsrpc/codec"
	"wsrpc/interceptor"
	"wsrpc/message"
)

// RequestOptions carries request()'s optional arguments from spec.md
// §4.5: an explicit timeout overriding Config.DefaultTimeout, and a
// caller-supplied id overriding the generated one.
type RequestOptions struct {
	Timeout time.Duration
	ID      codec.Value
	HasID   bool
}

// terminalSend is the innermost handler of the interceptor chain: it
// actually encodes call into a MessagePack frame and hands it to the
// transport. Everything upstream of this (Debug logging, rate limiting,
// caller interceptors) only ever wraps this call.
func (s *Session) terminalSend(ctx context.Context, call *interceptor.Call) error {
	var wire codec.Value
	if call.HasID {
		wire = message.NewRequest(call.Method, call.Params, call.ID)
	} else {
		wire = message.NewNotification(call.Method, call.Params)
	}

	frame, err := codec.Marshal(wire)
	if err != nil {
		return &message.CallError{Kind: message.KindSerializationError, Message: err.Error()}
	}

	s.mu.Lock()
	tr := s.current
	state := s.state
	s.mu.Unlock()

	if state != message.StateOpen || tr == nil {
		return &message.CallError{Kind: message.KindNotConnected, Message: "wsrpc: not connected"}
	}

	s.sendMu.Lock()
	err = tr.Send(frame)
	s.sendMu.Unlock()
	if err != nil {
		return &message.CallError{Kind: message.KindSerializationError, Message: err.Error()}
	}
	return nil
}

// Request implements spec.md §4.5's request(): fails synchronously if the
// session is not Open, otherwise assigns an id, registers a pending
// record with a timeout timer, sends the request frame, and blocks until
// the matching response arrives, the timer fires, or the connection is
// purged as closed. ctx cancellation only abandons the caller's wait; it
// does not cancel the in-flight pending record (matching spec.md's single-
// timer-per-request contract, which names only the timeout and
// connection-close paths as completion sources).
func (s *Session) Request(ctx context.Context, method string, params codec.Value, opts RequestOptions) (codec.Value, error) {
	s.mu.Lock()
	if s.state != message.StateOpen {
		s.mu.Unlock()
		return codec.Value{}, &message.CallError{Kind: message.KindNotConnected, Message: "wsrpc: not connected"}
	}

	id := opts.ID
	if !opts.HasID {
		id = codec.StringValue(s.ids.NewID())
	}
	key, ok := message.IDKey(id)
	if !ok {
		s.mu.Unlock()
		return codec.Value{}, &message.CallError{Kind: message.KindSerializationError, Message: "wsrpc: id must be a string or integer"}
	}
	if _, exists := s.pendings[key]; exists {
		s.mu.Unlock()
		return codec.Value{}, &message.CallError{Kind: message.KindSerializationError, Message: "wsrpc: duplicate request id"}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}

	timer := time.AfterFunc(timeout, func() { s.timeoutPending(key) })
	pending := message.NewPendingRequest(id, time.Now(), func() { timer.Stop() })
	s.pendings[key] = pending
	s.requestsSent++
	s.mu.Unlock()

	call := &interceptor.Call{Method: method, Params: params, ID: id, HasID: true}
	if err := s.chain(ctx, call); err != nil {
		s.mu.Lock()
		delete(s.pendings, key)
		s.mu.Unlock()
		timer.Stop()
		return codec.Value{}, err
	}

	select {
	case <-pending.Done:
		result, callErr := pending.Result()
		if callErr != nil {
			return codec.Value{}, callErr
		}
		return result, nil
	case <-ctx.Done():
		return codec.Value{}, ctx.Err()
	}
}

func (s *Session) timeoutPending(key string) {
	s.mu.Lock()
	pending, ok := s.pendings[key]
	if ok {
		delete(s.pendings, key)
		s.timeouts++
	}
	s.mu.Unlock()
	if ok {
		pending.Fail(&message.CallError{Kind: message.KindTimeout, Message: "wsrpc: request timed out"})
	}
}

// Notify implements spec.md §4.5's notify(): fails synchronously if the
// session is not Open, otherwise serializes and sends a notification
// frame (no id field at all) with no bookkeeping and no reply expected.
func (s *Session) Notify(method string, params codec.Value) error {
	s.mu.Lock()
	if s.state != message.StateOpen {
		s.mu.Unlock()
		return &message.CallError{Kind: message.KindNotConnected, Message: "wsrpc: not connected"}
	}
	s.mu.Unlock()

	call := &interceptor.Call{Method: method, Params: params, HasID: false}
	return s.chain(context.Background(), call)
}

// StreamController is returned by Stream; Close is idempotent and, once
// it returns, guarantees the handler will not be invoked again.
type StreamController struct {
	ID      codec.Value
	session *Session
	key     string
}

// Close removes the stream subscription. Calling it more than once is
// harmless.
func (c *StreamController) Close() {
	c.session.mu.Lock()
	sub, ok := c.session.streams[c.key]
	if ok {
		sub.Closed = true
		delete(c.session.streams, c.key)
	}
	c.session.mu.Unlock()
}

// Closed reports whether Close has been called (or the subscription has
// otherwise been purged, e.g. by final session Close).
func (c *StreamController) Closed() bool {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	_, ok := c.session.streams[c.key]
	return !ok
}

// Stream implements spec.md §4.5's stream(): fails synchronously if the
// session is not Open, otherwise registers handler under id and sends a
// request frame carrying that id. Unlike Request, no pending record is
// placed — streams have no timeout, per spec.md's documented asymmetry.
// Their inbound frames still increment responsesReceived, as onMessage
// does for every decoded frame.
func (s *Session) Stream(method string, params codec.Value, opts RequestOptions, handler message.StreamHandler) (*StreamController, error) {
	s.mu.Lock()
	if s.state != message.StateOpen {
		s.mu.Unlock()
		return nil, &message.CallError{Kind: message.KindNotConnected, Message: "wsrpc: not connected"}
	}

	id := opts.ID
	if !opts.HasID {
		id = codec.StringValue(s.ids.NewID())
	}
	key, ok := message.IDKey(id)
	if !ok {
		s.mu.Unlock()
		return nil, &message.CallError{Kind: message.KindSerializationError, Message: "wsrpc: id must be a string or integer"}
	}

	sub := &message.StreamSubscription{ID: id, Handler: handler}
	s.streams[key] = sub
	s.mu.Unlock()

	call := &interceptor.Call{Method: method, Params: params, ID: id, HasID: true}
	if err := s.chain(context.Background(), call); err != nil {
		s.mu.Lock()
		delete(s.streams, key)
		s.mu.Unlock()
		return nil, err
	}

	return &StreamController{ID: id, session: s, key: key}, nil
}

// purgePendings fails every outstanding pending request with kind/message,
// per the Open/Connecting→Closed transitions in spec.md §4.5's lifecycle
// table. Stream subscriptions are left alone — spec.md gives streams no
// connection-closed cancellation path; only explicit Close() or the
// session's own final Close() removes them.
func (s *Session) purgePendings(kind message.ErrorKind, msg string) {
	s.mu.Lock()
	toFail := make([]*message.PendingRequest, 0, len(s.pendings))
	for key, p := range s.pendings {
		toFail = append(toFail, p)
		delete(s.pendings, key)
	}
	s.closedPurges += uint64(len(toFail))
	s.mu.Unlock()

	for _, p := range toFail {
		p.Fail(&message.CallError{Kind: kind, Message: msg})
	}
}
