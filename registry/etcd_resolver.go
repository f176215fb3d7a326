// Package registry: EtcdResolver is the production Resolver, adapted from
// the teacher's EtcdRegistry. The teacher's Register/Deregister half (the
// server side of the phonebook) is dropped — this client never advertises
// itself — leaving only the read path: Get-by-prefix for Resolve, etcd's
// native Watch API for Watch.
package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdResolver implements Resolver using etcd v3.
//
//	Key:   /wsrpc/{ServiceName}/{Addr}
//	Value: JSON-encoded Endpoint
//
// Entries are written by whatever out-of-band process operates the
// servers this client connects to; this package only ever reads them.
type EtcdResolver struct {
	client *clientv3.Client
}

// NewEtcdResolver creates a resolver connected to the given etcd endpoints.
func NewEtcdResolver(endpoints []string) (*EtcdResolver, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdResolver{client: c}, nil
}

// Resolve returns all endpoints currently registered for serviceName.
func (r *EtcdResolver) Resolve(serviceName string) ([]Endpoint, error) {
	ctx := context.Background()
	prefix := "/wsrpc/" + serviceName + "/"

	resp, err := r.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	endpoints := make([]Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var ep Endpoint
		if err := json.Unmarshal(kv.Value, &ep); err != nil {
			continue // skip malformed entries rather than fail the whole resolve
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// Watch monitors a service prefix and emits the updated endpoint list
// whenever entries under it change. Uses etcd's server-push Watch API
// rather than polling.
func (r *EtcdResolver) Watch(serviceName string) <-chan []Endpoint {
	ctx := context.Background()
	ch := make(chan []Endpoint, 1)
	prefix := "/wsrpc/" + serviceName + "/"

	go func() {
		defer close(ch)
		watchChan := r.client.Watch(ctx, prefix, clientv3.WithPrefix())
		for range watchChan {
			endpoints, err := r.Resolve(serviceName)
			if err != nil {
				continue
			}
			ch <- endpoints
		}
	}()

	return ch
}

// Close releases the underlying etcd client connection.
func (r *EtcdResolver) Close() error {
	return r.client.Close()
}
