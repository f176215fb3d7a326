package client

import (
	"context"
	"sync"

	"wsrpc/transport"
)

// fakeTransport is a deterministic, in-process stand-in for
// transport.Transport, grounded on the same contract transport/websocket.go
// implements against the real gorilla/websocket conn. It lets these tests
// drive Session through its lifecycle (open, inbound frames, close) without
// a real socket, the way the teacher's own client tests drove ClientTransport
// against an in-memory net.Pipe.
type fakeTransport struct {
	mu        sync.Mutex
	hooks     transport.Hooks
	state     transport.State
	sent      [][]byte
	dialedURL string
	failDial  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{state: transport.StateClosed}
}

func (f *fakeTransport) Connect(ctx context.Context, url string, protocols []string, hooks transport.Hooks) error {
	if f.failDial {
		return errDial
	}
	f.mu.Lock()
	f.hooks = hooks
	f.dialedURL = url
	f.state = transport.StateOpen
	f.mu.Unlock()
	if hooks.OnOpen != nil {
		hooks.OnOpen()
	}
	return nil
}

func (f *fakeTransport) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeTransport) Close(code int, reason string) error {
	f.mu.Lock()
	if f.state == transport.StateClosed {
		f.mu.Unlock()
		return nil
	}
	f.state = transport.StateClosed
	hooks := f.hooks
	f.mu.Unlock()
	if hooks.OnClose != nil {
		hooks.OnClose(code, reason)
	}
	return nil
}

func (f *fakeTransport) State() transport.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// deliver simulates an inbound frame arriving on the read pump.
func (f *fakeTransport) deliver(frame []byte) {
	f.mu.Lock()
	hooks := f.hooks
	f.mu.Unlock()
	if hooks.OnMessage != nil {
		hooks.OnMessage(frame)
	}
}

// peerClose simulates the remote end dropping the connection, distinct from
// a local Close() call.
func (f *fakeTransport) peerClose(code int, reason string) {
	f.mu.Lock()
	f.state = transport.StateClosed
	hooks := f.hooks
	f.mu.Unlock()
	if hooks.OnClose != nil {
		hooks.OnClose(code, reason)
	}
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) lastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTransport) url() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dialedURL
}

var errDial = &dialError{}

type dialError struct{}

func (*dialError) Error() string { return "fake transport: dial failed" }
