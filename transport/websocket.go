package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport implements Transport over a single *websocket.Conn.
// It owns exactly one connection for its lifetime — Connect may only be
// called once per instance, matching the "single-use, replaced wholesale
// on reconnect" contract Transport documents.
type WebSocketTransport struct {
	dialer *websocket.Dialer

	mu    sync.Mutex
	conn  *websocket.Conn
	state atomic.Int32 // holds a State value

	hooks Hooks
}

// NewWebSocketTransport creates a transport using dialer, or
// websocket.DefaultDialer if dialer is nil.
func NewWebSocketTransport(dialer *websocket.Dialer) *WebSocketTransport {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	t := &WebSocketTransport{dialer: dialer}
	t.state.Store(int32(StateClosed))
	return t
}

func (t *WebSocketTransport) State() State {
	return State(t.state.Load())
}

// Connect dials url and starts a background read pump that delivers
// frames to hooks.OnMessage until the connection closes or errors.
func (t *WebSocketTransport) Connect(ctx context.Context, url string, protocols []string, hooks Hooks) error {
	t.hooks = hooks
	t.state.Store(int32(StateConnecting))

	header := http.Header{}
	if len(protocols) > 0 {
		header.Set("Sec-WebSocket-Protocol", joinProtocols(protocols))
	}

	conn, _, err := t.dialer.DialContext(ctx, url, header)
	if err != nil {
		t.state.Store(int32(StateClosed))
		if hooks.OnError != nil {
			hooks.OnError(err)
		}
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	t.state.Store(int32(StateOpen))

	if hooks.OnOpen != nil {
		hooks.OnOpen()
	}

	go t.readPump(conn)
	return nil
}

func (t *WebSocketTransport) readPump(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.state.Store(int32(StateClosed))
			code, reason := closeInfo(err)
			if t.hooks.OnClose != nil {
				t.hooks.OnClose(code, reason)
			}
			return
		}
		if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
			continue
		}
		if t.hooks.OnMessage != nil {
			t.hooks.OnMessage(data)
		}
	}
}

func (t *WebSocketTransport) Send(frame []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("transport: not connected")
	}
	// gorilla/websocket requires a single writer at a time per connection;
	// WriteMessage takes its own internal lock only for control frames, so
	// the caller must serialize Send calls itself — Session.sendMu does
	// this, the adapted form of the teacher's ClientTransport.sending lock.
	return conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (t *WebSocketTransport) Close(code int, reason string) error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		t.state.Store(int32(StateClosed))
		return nil
	}
	t.state.Store(int32(StateClosing))
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := conn.Close()
	t.state.Store(int32(StateClosed))
	return err
}

func joinProtocols(protocols []string) string {
	out := protocols[0]
	for _, p := range protocols[1:] {
		out += ", " + p
	}
	return out
}

func closeInfo(err error) (int, string) {
	if ce, ok := err.(*websocket.CloseError); ok {
		return ce.Code, ce.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}
