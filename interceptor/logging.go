package interceptor

import (
	"context"
	"log"
	"time"
)

// Logging records the method and elapsed duration for each outbound call,
// adapted from the teacher's LoggingMiddleware. It activates when
// client.Config.Debug is true. It logs once the send returns: the method,
// whether an id was set, how long the send took, and the send error if
// there was one. It does not see the response, which can arrive long
// after Logging has already returned control up the chain.
func Logging() Interceptor {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) error {
			start := time.Now()
			err := next(ctx, call)
			log.Printf("wsrpc: sent %s (id set: %v) in %s", call.Method, call.HasID, time.Since(start))
			if err != nil {
				log.Printf("wsrpc: send %s failed: %v", call.Method, err)
			}
			return err
		}
	}
}
