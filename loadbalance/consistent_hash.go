package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"
	"sync"

	"wsrpc/registry"
)

// ConsistentHashBalancer maps an affinity key onto one of the available
// endpoints using a hash ring, so the same key keeps landing on the same
// endpoint across reconnects even as the endpoint list changes shape —
// useful when a server holds per-session state a reconnect would rather
// not lose.
//
// The teacher's ConsistentHashBalancer took explicit Add calls to build a
// long-lived ring and a bare Pick(key) that didn't implement Balancer at
// all. A reconnecting session's endpoint list can change between any two
// connect attempts (Resolver.Watch), so this version rebuilds the ring
// from the endpoint list it's given on every Pick instead of maintaining
// one across calls, and it implements Balancer directly by hashing a
// caller-set AffinityKey rather than taking the key as a Pick argument.
type ConsistentHashBalancer struct {
	replicas int

	mu  sync.Mutex
	key string
}

// NewConsistentHashBalancer creates a balancer with 100 virtual nodes per
// endpoint — enough for statistically even distribution with a handful of
// real endpoints, per the teacher's own sizing.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{replicas: 100}
}

// SetAffinityKey changes the key used to pick an endpoint. Set it to a
// stable identifier (e.g. the configured ServiceName, or a
// session-specific token) so repeated Pick calls land on the same
// endpoint as long as it remains in the resolved list. The session does
// not call it; an unset key hashes as "default".
func (b *ConsistentHashBalancer) SetAffinityKey(key string) {
	b.mu.Lock()
	b.key = key
	b.mu.Unlock()
}

func (b *ConsistentHashBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("loadbalance: no endpoints available")
	}

	b.mu.Lock()
	key := b.key
	b.mu.Unlock()
	if key == "" {
		key = "default"
	}

	type ringEntry struct {
		hash uint32
		ep   *registry.Endpoint
	}
	ring := make([]ringEntry, 0, len(endpoints)*b.replicas)
	for i := range endpoints {
		for v := 0; v < b.replicas; v++ {
			vkey := fmt.Sprintf("%s#%d", endpoints[i].Addr, v)
			ring = append(ring, ringEntry{hash: crc32.ChecksumIEEE([]byte(vkey)), ep: &endpoints[i]})
		}
	}
	sort.Slice(ring, func(i, j int) bool { return ring[i].hash < ring[j].hash })

	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(ring), func(i int) bool { return ring[i].hash >= hash })
	if idx == len(ring) {
		idx = 0
	}
	return ring[idx].ep, nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
