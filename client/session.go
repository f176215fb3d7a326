package client

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"wsrpc/codec"
	"wsrpc/eventbus"
	"wsrpc/idgen"
	"wsrpc/interceptor"
	"wsrpc/message"
	"wsrpc/transport"
)

// Session is the RPC session from spec.md §4.5: it owns the transport, the
// pending-request table, the stream-subscription table, all timers, and
// the stats, and implements request/notify/stream/on/close/reconnectToUrl.
//
// Concurrency model (SPEC_FULL.md §5): the teacher's source is
// single-threaded cooperative; Go has real OS threads, so mu guards every
// field the teacher's single event loop would otherwise serialize for
// free (state, pendings, streams, stats, responseTimes, current,
// reconnectEnabled). Exactly one goroutine — the current transport's read
// pump, via onMessage — ever decodes inbound frames and dispatches them;
// everything else (API calls, timers) takes mu before touching session
// state.
type Session struct {
	cfg   Config
	ids   idgen.Generator
	bus   *eventbus.Bus
	chain interceptor.HandlerFunc

	newTransport func() transport.Transport

	// sendMu serializes Send calls against the current transport: gorilla's
	// websocket.Conn.WriteMessage requires a single writer at a time, and
	// unlike mu (held only for bookkeeping) sendMu may be held across an
	// actual blocking socket write, so it is a distinct lock.
	sendMu sync.Mutex

	mu                  sync.Mutex
	state               message.ConnectionState
	current             transport.Transport // nil when Closed
	reconnectEnabled    bool
	reconnectInProgress bool
	reconnector         *transport.Reconnector
	heartbeatStop       chan struct{}

	pendings map[string]*message.PendingRequest
	streams  map[string]*message.StreamSubscription

	requestsSent      uint64
	responsesReceived uint64
	timeouts          uint64
	errors            uint64
	reconnectCount    uint64
	closedPurges      uint64
	responseTimes     []time.Duration
}

// New creates a session from cfg, applying spec.md's documented defaults
// to any zero-value field withDefaults recognizes. It does not connect;
// call Connect to begin the first connection attempt, mirroring the
// Closed→Connecting transition spec.md's lifecycle table names.
func New(cfg Config) *Session {
	cfg = withDefaults(cfg)
	s := &Session{
		cfg:              cfg,
		ids:              idgen.UUIDGenerator{},
		bus:              eventbus.New(),
		newTransport:     func() transport.Transport { return transport.NewWebSocketTransport(nil) },
		state:            message.StateClosed,
		reconnectEnabled: cfg.AutoReconnect,
		reconnector:      transport.NewReconnector(cfg.ReconnectInterval, cfg.MaxReconnectAttempts),
		pendings:         make(map[string]*message.PendingRequest),
		streams:          make(map[string]*message.StreamSubscription),
	}
	s.chain = s.buildChain()
	return s
}

// buildChain assembles the outbound interceptor chain: Debug logging
// (outermost), then rate limiting, then any caller-supplied interceptors,
// then the terminal handler that actually serializes and sends — per
// SPEC_FULL.md §4.5's "inserted between session and serializer" note.
func (s *Session) buildChain() interceptor.HandlerFunc {
	var chain []interceptor.Interceptor
	if s.cfg.Debug {
		chain = append(chain, interceptor.Logging())
	}
	if s.cfg.RequestsPerSecond > 0 {
		chain = append(chain, interceptor.RateLimit(s.cfg.RequestsPerSecond, s.cfg.Burst))
	}
	chain = append(chain, s.cfg.Interceptors...)
	return interceptor.Chain(chain...)(s.terminalSend)
}

// State returns the session's current connection state.
func (s *Session) State() message.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// On, Once, and Off delegate to the event bus (spec.md §4.5).
func (s *Session) On(event eventbus.Event, fn eventbus.Listener) eventbus.Unsubscribe {
	return s.bus.On(event, fn)
}

func (s *Session) Once(event eventbus.Event, fn eventbus.Listener) eventbus.Unsubscribe {
	return s.bus.Once(event, fn)
}

func (s *Session) Off(event eventbus.Event) {
	s.bus.Off(event)
}

// Connect dials the target endpoint and begins the Closed→Connecting
// transition. It returns once the transport's Connect has returned; with
// the WebSocket transport the dial has then completed, and on success the
// session is already Open and the "open" event has been emitted.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != message.StateClosed {
		s.mu.Unlock()
		return fmt.Errorf("wsrpc: connect called while state is %s", s.state)
	}
	s.state = message.StateConnecting
	s.mu.Unlock()

	return s.dial(ctx)
}

// dial picks a target (directly from cfg.URL, or via resolver+balancer
// when configured per SPEC_FULL.md's domain-stack note) and connects a
// fresh transport instance.
func (s *Session) dial(ctx context.Context) error {
	target, err := s.pickTarget()
	if err != nil {
		s.mu.Lock()
		s.state = message.StateClosed
		s.mu.Unlock()
		s.bus.Emit(eventbus.EventError, err)
		return err
	}

	tr := s.newTransport()
	s.mu.Lock()
	s.current = tr
	s.mu.Unlock()

	hooks := transport.Hooks{
		OnOpen:    func() { s.onOpen(tr) },
		OnMessage: func(frame []byte) { s.onMessage(tr, frame) },
		OnClose:   func(code int, reason string) { s.onClose(tr, code, reason) },
		OnError:   func(err error) { s.onError(tr, err) },
	}

	if err := tr.Connect(ctx, target, s.cfg.Protocols, hooks); err != nil {
		return err
	}
	return nil
}

// pickTarget resolves the URL to dial for the next (re)connect attempt.
func (s *Session) pickTarget() (string, error) {
	if !s.cfg.resolverActive() {
		return s.cfg.URL, nil
	}
	endpoints, err := s.cfg.Resolver.Resolve(s.cfg.ServiceName)
	if err != nil {
		return "", fmt.Errorf("wsrpc: resolve %q: %w", s.cfg.ServiceName, err)
	}
	ep, err := s.cfg.Balancer.Pick(endpoints)
	if err != nil {
		return "", fmt.Errorf("wsrpc: pick endpoint for %q: %w", s.cfg.ServiceName, err)
	}
	return ep.Addr, nil
}

// isCurrent reports whether tr is still the transport instance the
// session owns — per spec.md §9's staleness note, an older transport's
// callback must recognize it has been superseded and do nothing.
func (s *Session) isCurrent(tr transport.Transport) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == tr
}

func (s *Session) onOpen(tr transport.Transport) {
	if !s.isCurrent(tr) {
		return
	}
	s.mu.Lock()
	s.state = message.StateOpen
	s.reconnector.Reset()
	wasReconnecting := s.reconnectInProgress
	s.reconnectInProgress = false
	s.mu.Unlock()
	s.startHeartbeat()
	s.bus.Emit(eventbus.EventOpen, nil)
	if wasReconnecting {
		s.bus.Emit(eventbus.EventReconnected, nil)
	}
}

func (s *Session) onError(tr transport.Transport, err error) {
	if !s.isCurrent(tr) {
		return
	}
	s.bus.Emit(eventbus.EventError, err)
}

func (s *Session) onClose(tr transport.Transport, code int, reason string) {
	if !s.isCurrent(tr) {
		return
	}
	s.stopHeartbeat()

	s.mu.Lock()
	s.state = message.StateClosed
	s.current = nil
	reconnect := s.reconnectEnabled
	s.mu.Unlock()

	s.purgePendings(message.KindConnectionClosed, "connection closed")
	s.bus.Emit(eventbus.EventClose, eventbus.ClosePayload{Code: code, Reason: reason})

	if reconnect {
		s.scheduleReconnect()
	}
}

// scheduleReconnect arms the single outstanding reconnect timer via
// Reconnector, per spec.md §4.5/§5.
func (s *Session) scheduleReconnect() {
	s.reconnector.Schedule(func(attempt, max int) {
		s.mu.Lock()
		s.reconnectCount++
		s.state = message.StateConnecting
		s.reconnectInProgress = true
		s.mu.Unlock()

		s.bus.Emit(eventbus.EventReconnecting, eventbus.ReconnectingPayload{Attempt: attempt, MaxAttempts: max})

		if err := s.dial(context.Background()); err != nil {
			s.mu.Lock()
			s.state = message.StateClosed
			s.mu.Unlock()
			if s.reconnectEnabledLocked() {
				s.scheduleReconnect()
			}
		}
	}, func() {
		s.bus.Emit(eventbus.EventReconnectFailed, nil)
	})
}

func (s *Session) reconnectEnabledLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnectEnabled
}

// startHeartbeat launches the periodic heartbeat notification timer, per
// spec.md §4.5. It is a no-op when HeartbeatInterval is 0.
func (s *Session) startHeartbeat() {
	if s.cfg.HeartbeatInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	s.mu.Lock()
	s.heartbeatStop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Notify(s.cfg.HeartbeatMethod, codec.Undefined); err != nil {
					log.Printf("wsrpc: heartbeat failed: %v", err)
				}
			case <-stop:
				return
			}
		}
	}()
}

func (s *Session) stopHeartbeat() {
	s.mu.Lock()
	stop := s.heartbeatStop
	s.heartbeatStop = nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// Close implements spec.md §4.5's close(): disables autoReconnect, cancels
// the pending reconnect timer, stops the heartbeat, closes the transport,
// purges pending requests as ConnectionClosed, closes and removes every
// stream subscription, and drops all listeners. Idempotent.
func (s *Session) Close(code int, reason string) error {
	s.mu.Lock()
	s.reconnectEnabled = false
	tr := s.current
	s.current = nil
	alreadyClosed := s.state == message.StateClosed
	s.state = message.StateClosed
	for key, sub := range s.streams {
		sub.Closed = true
		delete(s.streams, key)
	}
	s.mu.Unlock()

	s.reconnector.Stop()
	s.stopHeartbeat()
	s.purgePendings(message.KindConnectionClosed, "session closed")
	s.bus.RemoveAll()

	if alreadyClosed || tr == nil {
		return nil
	}
	return tr.Close(code, reason)
}

// ReconnectToUrl implements spec.md §4.5's reconnectToUrl: closes the
// current connection, replaces the URL, re-enables autoReconnect, resets
// the reconnect counter, and initiates a new connect. Per SPEC_FULL.md's
// domain-stack note, this bypasses the resolver entirely — ServiceName and
// Resolver are cleared so subsequent automatic reconnects keep dialing the
// pinned URL.
func (s *Session) ReconnectToUrl(ctx context.Context, url string) error {
	_ = s.Close(1000, "reconnecting to new url")

	s.mu.Lock()
	s.cfg.URL = url
	s.cfg.ServiceName = ""
	s.cfg.Resolver = nil
	s.reconnectEnabled = true
	s.state = message.StateConnecting
	s.mu.Unlock()

	s.reconnector.Reset()
	return s.dial(ctx)
}
