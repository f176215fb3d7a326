// Package eventbus implements typed publish/subscribe over a fixed event
// catalog, per spec.md §4.4. There is no library in the retrieved examples
// for an in-process, single-catalog event emitter of this shape — the
// pack's subscribe/notify-shaped dependencies (etcd's Watch, the MCP SDK's
// SSE streams) are all network-facing — so this is built on the same
// mutex-protected-map idiom the teacher uses for its own concurrent
// registries (transport.ClientTransport.pending).
package eventbus

import (
	"log"
	"sync"
)

// Event names the fixed catalog from spec.md §6.
type Event string

const (
	EventOpen            Event = "open"
	EventClose           Event = "close"
	EventError           Event = "error"
	EventMessage         Event = "message"
	EventReconnecting    Event = "reconnecting"
	EventReconnected     Event = "reconnected"
	EventReconnectFailed Event = "reconnect_failed"
)

// Listener receives an event payload. Its shape is an `any` because each
// event in the catalog carries a different payload type (a decoded
// message.Response for "message", a ReconnectingPayload for
// "reconnecting", and so on).
type Listener func(payload any)

type subscription struct {
	id   uint64
	fn   Listener
	once bool
}

// Bus is the listener registry. The zero value is not usable; use New.
type Bus struct {
	mu        sync.Mutex
	listeners map[Event][]*subscription
	nextID    uint64
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{listeners: make(map[Event][]*subscription)}
}

// Unsubscribe removes the listener it was returned for. Calling it more
// than once is harmless.
type Unsubscribe func()

// On subscribes fn to event. Subscribing the exact same *Listener value
// twice is a caller error the teacher's own map-based registries don't
// guard against either; On does not special-case it — each call returns
// its own independent Unsubscribe.
func (b *Bus) On(event Event, fn Listener) Unsubscribe {
	return b.add(event, fn, false)
}

// Once subscribes fn to fire at most once. The subscription is removed
// before fn is invoked, so a handler that re-entrantly unsubscribes itself
// (a no-op at that point) or others is safe.
func (b *Bus) Once(event Event, fn Listener) Unsubscribe {
	return b.add(event, fn, true)
}

func (b *Bus) add(event Event, fn Listener, once bool) Unsubscribe {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	sub := &subscription{id: id, fn: fn, once: once}
	b.listeners[event] = append(b.listeners[event], sub)
	b.mu.Unlock()

	return func() { b.remove(event, id) }
}

func (b *Bus) remove(event Event, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.listeners[event]
	for i, s := range subs {
		if s.id == id {
			b.listeners[event] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Off removes every subscription registered for event. Go has no
// stable function-value equality, so unlike the source's Set-of-callbacks
// model, the usual way to remove a specific listener is to invoke the
// Unsubscribe returned by On/Once; Off exists for the "remove everything
// registered under event" case spec.md names.
func (b *Bus) Off(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, event)
}

// RemoveAll clears every listener for every event.
func (b *Bus) RemoveAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[Event][]*subscription)
}

// Emit invokes exactly the listeners registered for event at the moment
// Emit is called — a snapshot taken under the lock — so a listener added
// during delivery does not receive this emit, and removal during delivery
// doesn't skip a not-yet-invoked listener. A listener panic is recovered
// and logged; it does not stop delivery to the remaining listeners.
func (b *Bus) Emit(event Event, payload any) {
	b.mu.Lock()
	snapshot := make([]*subscription, len(b.listeners[event]))
	copy(snapshot, b.listeners[event])
	var onceIDs []uint64
	for _, s := range snapshot {
		if s.once {
			onceIDs = append(onceIDs, s.id)
		}
	}
	for _, id := range onceIDs {
		b.removeLocked(event, id)
	}
	b.mu.Unlock()

	for _, s := range snapshot {
		invoke(s.fn, payload)
	}
}

func (b *Bus) removeLocked(event Event, id uint64) {
	subs := b.listeners[event]
	for i, s := range subs {
		if s.id == id {
			b.listeners[event] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func invoke(fn Listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("eventbus: listener panicked: %v", r)
		}
	}()
	fn(payload)
}

// ReconnectingPayload is the "reconnecting" event payload from spec.md §6.
type ReconnectingPayload struct {
	Attempt     int
	MaxAttempts int
}

// ClosePayload is the "close" event payload.
type ClosePayload struct {
	Code   int
	Reason string
}
