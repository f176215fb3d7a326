package interceptor

import (
	"context"

	"golang.org/x/time/rate"

	"wsrpc/message"
)

// RateLimit enforces a token-bucket cap on outbound calls, adapted from
// the teacher's RateLimitMiddleware. It backs client.Config's additive
// RequestsPerSecond/Burst fields (SPEC_FULL §3). As in the teacher's
// version, the limiter is constructed once in the outer closure and
// shared across every call through the returned Interceptor — a
// per-request limiter would reset the bucket on every call and defeat
// the limit entirely.
func RateLimit(requestsPerSecond float64, burst int) Interceptor {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) error {
			if !limiter.Allow() {
				return &message.CallError{
					Kind:    message.KindRateLimited,
					Message: "rate limit exceeded",
				}
			}
			return next(ctx, call)
		}
	}
}
