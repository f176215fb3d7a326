// Package registry defines the endpoint-resolution interface the client
// uses when Config.ServiceName is set instead of a single static URL.
//
// It is a client-only trim of the teacher's registry package: the teacher's
// Registry interface covers both sides of discovery (Register/Deregister
// for the server that advertises itself, Discover/Watch for the client
// that looks it up). spec.md's client has no server role to advertise —
// per its explicit Non-goal, it never listens — so only the read half
// survives here, renamed Resolver to make that asymmetry explicit rather
// than leaving unused methods on an interface nobody implements both
// halves of.
package registry

// Endpoint is a single dialable target, adapted from the teacher's
// ServiceInstance. Addr holds a full URL rather than a bare host:port,
// since the session dials WebSocket URLs, not raw TCP addresses.
type Endpoint struct {
	Addr    string // full ws:// or wss:// URL
	Weight  int    // relative selection weight, consumed by loadbalance.Balancer
	Version string // optional deployment tag, carried through for observability
}

// Resolver discovers dialable endpoints for a named service. Implementations
// include EtcdResolver (production) and StaticResolver, a fixed in-memory
// endpoint list.
type Resolver interface {
	// Resolve returns the currently known endpoints for serviceName.
	Resolve(serviceName string) ([]Endpoint, error)

	// Watch returns a channel that emits the updated endpoint list whenever
	// the service's endpoints change. The channel is closed when the
	// resolver is done watching; callers must not rely on it ever
	// delivering a value.
	Watch(serviceName string) <-chan []Endpoint
}

// StaticResolver resolves a fixed, unchanging endpoint list. It is for
// callers who want load balancing across a known, hand-configured set of
// endpoints without standing up a discovery backend — pair it with a
// Balancer and set Config.ServiceName to any non-empty label to activate
// resolution. When no Resolver is configured at all, the session dials
// Config.URL directly instead, which remains the simpler default for a
// single fixed endpoint.
type StaticResolver struct {
	Endpoints []Endpoint
}

func (s StaticResolver) Resolve(serviceName string) ([]Endpoint, error) {
	return s.Endpoints, nil
}

func (s StaticResolver) Watch(serviceName string) <-chan []Endpoint {
	ch := make(chan []Endpoint)
	close(ch)
	return ch
}
