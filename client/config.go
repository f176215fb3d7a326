// Package client implements the RPC session: connection lifecycle,
// request/response correlation, stream subscriptions, heartbeat, and
// reconnection, all multiplexed over one transport.Transport. It is
// grounded primarily on the teacher's transport.ClientTransport (the
// pending-map / recvLoop / heartbeatLoop shape) and client.Client (the
// discover-pick-dial-call flow), generalized from a request/reply RPC
// client into the fuller session spec.md §4.5 describes.
package client

import (
	"time"

	"wsrpc/interceptor"
	"wsrpc/loadbalance"
	"wsrpc/registry"
)

// Config holds every recognized client option from spec.md §3, typed the
// Go way (time.Duration instead of raw milliseconds), plus the additive
// domain-stack fields SPEC_FULL.md §3/§4.5 introduces.
type Config struct {
	// URL is the endpoint the transport connects to. Not used for dialing
	// while ServiceName, Resolver and Balancer are all set.
	URL string

	// Protocols is the WebSocket sub-protocol hint passed to the transport.
	Protocols []string

	// AutoReconnect controls whether a Closed transition schedules a
	// reconnect attempt. Default true.
	AutoReconnect bool

	// ReconnectInterval is the delay before each reconnect attempt.
	// Default 3s.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts bounds consecutive reconnect attempts before
	// the session gives up and emits reconnect_failed. Default 5.
	MaxReconnectAttempts int

	// DefaultTimeout is the fallback per-request timeout used when
	// Request is called without an explicit one. Default 15s.
	DefaultTimeout time.Duration

	// HeartbeatInterval is the period of the heartbeat notification; 0
	// disables heartbeats. Default 30s.
	HeartbeatInterval time.Duration

	// HeartbeatMethod names the heartbeat notification's method. Default
	// "ping".
	HeartbeatMethod string

	// Debug enables the logging interceptor on the outbound send path.
	Debug bool

	// ServiceName, Resolver, and Balancer activate endpoint resolution
	// (SPEC_FULL.md's domain-stack extension). All three must be set
	// together for resolution to take effect; if Resolver or Balancer is
	// nil, the session falls back to dialing URL directly.
	ServiceName string
	Resolver    registry.Resolver
	Balancer    loadbalance.Balancer

	// RequestsPerSecond and Burst configure the outbound rate-limit
	// interceptor. RequestsPerSecond<=0 disables rate limiting.
	RequestsPerSecond float64
	Burst             int

	// Interceptors are additional interceptors appended after Debug and
	// rate-limiting in the chain (outermost to innermost is Debug, then
	// rate-limit, then these, then the send itself).
	Interceptors []interceptor.Interceptor
}

// DefaultConfig returns a Config with every spec.md §3 documented default
// applied and url set to the given endpoint.
func DefaultConfig(url string) Config {
	return Config{
		URL:                  url,
		AutoReconnect:        true,
		ReconnectInterval:    3 * time.Second,
		MaxReconnectAttempts: 5,
		DefaultTimeout:       15 * time.Second,
		HeartbeatInterval:    30 * time.Second,
		HeartbeatMethod:      "ping",
	}
}

// withDefaults fills zero-value fields of c with spec.md's documented
// defaults, leaving explicitly-set fields untouched. Used by New so
// callers can supply a partially-populated Config. HeartbeatInterval is
// deliberately excluded: spec.md gives zero its own meaning ("0 disables")
// rather than "unset", so a caller who wants heartbeats must go through
// DefaultConfig or set the field explicitly.
func withDefaults(c Config) Config {
	if c.ReconnectInterval == 0 {
		c.ReconnectInterval = 3 * time.Second
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = 15 * time.Second
	}
	if c.HeartbeatMethod == "" {
		c.HeartbeatMethod = "ping"
	}
	return c
}

// resolverActive reports whether endpoint resolution should be used in
// place of dialing URL directly.
func (c Config) resolverActive() bool {
	return c.ServiceName != "" && c.Resolver != nil && c.Balancer != nil
}
