// Package idgen produces JSON-RPC correlation ids that are unique for the
// lifetime of the process, per spec.md's external-interface contract for
// id generation.
package idgen

import "github.com/google/uuid"

// Generator produces ids for requests that don't supply their own. An
// interface, rather than a bare function, so callers can swap in a
// deterministic stub during testing without needing a UUID at all.
type Generator interface {
	NewID() string
}

// UUIDGenerator implements Generator with RFC 4122 v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
