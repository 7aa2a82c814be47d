package relay

import (
	"log"
	"sync"
)

// Listener is one connected viewer. Ready reports whether the underlying
// connection can currently accept a message.
type Listener interface {
	Ready() bool
	Send(msg []byte) error
}

// Relay fans out every message it receives to all registered listeners.
// Delivery is best effort; a failed send is logged and the listener stays registered.
type Relay struct {
	mu        sync.RWMutex
	listeners map[Listener]struct{}
}

// New creates an empty relay.
func New() *Relay {
	return &Relay{listeners: make(map[Listener]struct{})}
}

// AddClient registers l. Adding a listener twice has no effect.
func (r *Relay) AddClient(l Listener) {
	r.mu.Lock()
	r.listeners[l] = struct{}{}
	count := len(r.listeners)
	r.mu.Unlock()
	log.Printf("Relay client connected. Total: %d", count)
}

// RemoveClient unregisters l. Removing an unknown listener is a no-op.
func (r *Relay) RemoveClient(l Listener) {
	r.mu.Lock()
	_, ok := r.listeners[l]
	delete(r.listeners, l)
	count := len(r.listeners)
	r.mu.Unlock()
	if ok {
		log.Printf("Relay client disconnected. Total: %d", count)
	}
}

// BroadcastMessage delivers msg verbatim to every ready listener, including
// the one it came from. It returns the number of successful sends.
func (r *Relay) BroadcastMessage(msg []byte) int {
	r.mu.RLock()
	targets := make([]Listener, 0, len(r.listeners))
	for l := range r.listeners {
		targets = append(targets, l)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, l := range targets {
		if !l.Ready() {
			continue
		}
		if err := l.Send(msg); err != nil {
			log.Printf("Error writing to relay client: %v", err)
			continue
		}
		delivered++
	}
	return delivered
}

// GetClientCount returns the number of registered listeners, ready or not.
func (r *Relay) GetClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
