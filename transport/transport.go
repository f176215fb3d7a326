// Package transport defines the frame transport contract the session
// depends on (spec.md §6) and a concrete WebSocket implementation of it.
//
// spec.md treats the transport as an external collaborator and specifies
// only the shape the session needs: connect, send a binary frame, receive
// a binary frame, close with a code and reason, and four lifecycle hooks.
// Unlike the JS source this was distilled from, nothing here is vendored —
// transport.go names the contract, websocket.go implements it for real
// against github.com/gorilla/websocket, the same client library
// modelcontextprotocol-go-sdk's WebSocketClientTransport wraps.
package transport

import (
	"context"
	"wsrpc/message"
)

// State is an alias of message.ConnectionState, so the transport and the
// session share one set of state values with no conversion.
type State = message.ConnectionState

const (
	StateClosed     = message.StateClosed
	StateConnecting = message.StateConnecting
	StateOpen       = message.StateOpen
	StateClosing    = message.StateClosing
)

// Hooks are the four lifecycle callbacks spec.md §6 names. A Transport
// invokes them as the connection progresses; the session supplies them at
// construction time. All four are optional — a nil hook is simply not
// called.
type Hooks struct {
	OnOpen    func()
	OnMessage func(frame []byte)
	OnClose   func(code int, reason string)
	OnError   func(err error)
}

// Transport is the binary frame connection contract. A Transport instance
// is single-use: once Close has been called, or OnClose has fired, a new
// instance must be created to reconnect — this is what lets the session
// check "is this the transport instance I currently own" on every callback
// (spec.md §9's transport-ownership staleness note) simply by pointer
// identity.
type Transport interface {
	// Connect dials the endpoint and begins delivering Hooks callbacks.
	// WebSocketTransport returns once the dial has completed or failed;
	// on success it has already invoked OnOpen before returning.
	Connect(ctx context.Context, url string, protocols []string, hooks Hooks) error

	// Send transmits one binary frame. The session assumes this does not
	// block meaningfully (spec.md §5: "no backpressure signal ... session
	// assumes send is non-blocking").
	Send(frame []byte) error

	// Close closes the connection with the given WebSocket close code and
	// reason, synchronously from the caller's perspective — OnClose may
	// still fire asynchronously once the peer acknowledges.
	Close(code int, reason string) error

	// State reports the transport's current lifecycle state.
	State() State
}
