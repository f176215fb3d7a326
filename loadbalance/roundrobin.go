package loadbalance

import (
	"fmt"
	"sync/atomic"

	"wsrpc/registry"
)

// RoundRobinBalancer cycles through endpoints in order using an atomic
// counter, lock-free.
type RoundRobinBalancer struct {
	counter int64
}

func (b *RoundRobinBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("loadbalance: no endpoints available")
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(endpoints))
	return &endpoints[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
