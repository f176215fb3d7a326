package loadbalance

import (
	"fmt"
	"math/rand"

	"wsrpc/registry"
)

// WeightedRandomBalancer picks an endpoint with probability proportional
// to its Weight — a weight-10 endpoint gets roughly 2x the traffic of a
// weight-5 one.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("loadbalance: no endpoints available")
	}

	totalWeight := 0
	for _, e := range endpoints {
		totalWeight += e.Weight
	}
	if totalWeight <= 0 {
		return &endpoints[rand.Intn(len(endpoints))], nil
	}

	r := rand.Intn(totalWeight)
	for i := range endpoints {
		r -= endpoints[i].Weight
		if r < 0 {
			return &endpoints[i], nil
		}
	}

	return nil, fmt.Errorf("loadbalance: unreachable in weighted random selection")
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
