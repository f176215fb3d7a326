// Package interceptor implements the onion-model chain from the teacher's
// middleware package, retargeted from wrapping a server-side RPC handler
// to wrapping the client's outbound send path (request and notify calls).
//
// Onion model execution order is unchanged from the teacher:
//
//	Chain(A, B, C)(handler)  →  A(B(C(handler)))
//
//	Call:     A.before → B.before → C.before → handler (the actual send)
//	Return:   handler → C.after → B.after → A.after
//
// An interceptor can short-circuit by returning an error without calling
// next — this is how rate limiting rejects a call before it ever reaches
// the wire.
package interceptor

import (
	"context"

	"wsrpc/codec"
)

// Call describes one outbound request or notification, captured before
// encoding. ID is the zero Value and HasID is false for notifications,
// mirroring message.NewNotification's omission of the id field.
type Call struct {
	Method string
	Params codec.Value
	ID     codec.Value
	HasID  bool
}

// HandlerFunc performs (or forwards) one outbound call. The terminal
// handler in a chain is supplied by the client session and actually
// serializes and sends the frame.
type HandlerFunc func(ctx context.Context, call *Call) error

// Interceptor wraps a HandlerFunc with additional behavior.
type Interceptor func(next HandlerFunc) HandlerFunc

// Chain composes interceptors so the first one listed is the outermost
// layer — first to run on the way in, last to run on the way out.
func Chain(interceptors ...Interceptor) Interceptor {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(interceptors) - 1; i >= 0; i-- {
			next = interceptors[i](next)
		}
		return next
	}
}
