package events

import (
	"sync"
	"time"
)

const defaultBufferSize = 32

// Event is a typed notification streamed to subscribers.
type Event struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Publisher is the narrow side of the hub used by services.
type Publisher interface {
	Publish(evt Event)
}

// Hub fans events out to subscribers through per-subscriber buffered channels.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Event
	nextID      uint64
	bufferSize  int
	closed      bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint64]chan Event),
		bufferSize:  defaultBufferSize,
	}
}

// Publish delivers evt to every subscriber. A subscriber whose buffer is full
// misses the event; publishers never block.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a listener and returns its channel plus a cleanup function.
// The channel is closed by the cleanup function or by Close.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Event, h.bufferSize)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
	h.closed = true
}
