// Package loadbalance provides strategies for picking a dial target among
// several endpoints a Resolver has returned, adapted from the teacher's
// loadbalance package onto registry.Endpoint.
//
// Three strategies carry over unchanged in spirit:
//   - RoundRobin:     equal-capacity servers behind a single ServiceName
//   - WeightedRandom: heterogeneous servers (Endpoint.Weight differs)
//   - ConsistentHash: reconnect-affinity — prefer landing back on the same
//     server a session was previously talking to, reducing unnecessary
//     server-side state loss across a reconnect
package loadbalance

import "wsrpc/registry"

// Balancer picks one endpoint from a resolved list. The session calls Pick
// on every (re)connect attempt; implementations must be goroutine-safe.
type Balancer interface {
	Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error)

	// Name returns the strategy name.
	Name() string
}
