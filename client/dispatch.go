package client

import (
	"log"
	"time"

	"wsrpc/codec"
	"wsrpc/eventbus"
	"wsrpc/message"
	"wsrpc/transport"
)

// onMessage implements spec.md §4.5's inbound frame handling. It runs on
// the transport's read-pump goroutine — the one goroutine that ever
// decodes inbound frames and dispatches them, per SPEC_FULL.md §5.
func (s *Session) onMessage(tr transport.Transport, frame []byte) {
	if !s.isCurrent(tr) {
		return
	}

	v, err := codec.Unmarshal(frame)
	if err != nil {
		log.Printf("wsrpc: dropping frame: decode failed: %v", err)
		return
	}

	resp := message.ParseResponse(v)

	s.mu.Lock()
	s.responsesReceived++
	if resp.Error != nil {
		s.errors++
	}
	s.mu.Unlock()

	if resp.HasID {
		if key, ok := message.IDKey(resp.ID); ok {
			s.mu.Lock()
			sub, isStream := s.streams[key]
			pending, isPending := s.pendings[key]
			if isPending {
				delete(s.pendings, key)
			}
			s.mu.Unlock()

			if isStream {
				sub.Dispatch(v)
				s.bus.Emit(eventbus.EventMessage, resp)
				return
			}
			if isPending {
				s.completePending(pending, resp)
				s.bus.Emit(eventbus.EventMessage, resp)
				return
			}
		}
	}

	// Un-correlated frame (null id, or an id matching neither table): only
	// reaches the message event, per spec.md §4.5.
	s.bus.Emit(eventbus.EventMessage, resp)
}

// completePending resolves a pending record from a parsed response,
// records the round-trip latency on success, and cancels its timer —
// exactly-once, enforced by PendingRequest itself.
func (s *Session) completePending(pending *message.PendingRequest, resp message.Response) {
	if resp.Error != nil {
		pending.Fail(&message.CallError{
			Kind:    message.KindRPCError,
			Message: resp.Error.Message,
			Code:    resp.Error.Code,
			HasCode: true,
			Data:    resp.Error.Data,
			HasData: resp.Error.HasData,
		})
		return
	}

	s.recordResponseTime(time.Since(pending.SentAt))
	pending.Complete(resp.Result)
}

// recordResponseTime pushes a successful round-trip latency onto the
// ring-limited sample sequence spec.md §4.5 describes (at most 100
// samples; averageResponseTime is their arithmetic mean). Only successful
// matches contribute — timeouts and errors do not, per spec.md §9.
func (s *Session) recordResponseTime(d time.Duration) {
	const maxSamples = 100
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseTimes = append(s.responseTimes, d)
	if len(s.responseTimes) > maxSamples {
		s.responseTimes = s.responseTimes[len(s.responseTimes)-maxSamples:]
	}
}
