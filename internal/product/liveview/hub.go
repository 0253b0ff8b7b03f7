package liveview

import (
	"sync"

	"github.com/openretail/stocksync/internal/product/domain"
)

const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

const (
	defaultBufferSize       = 50
	defaultSubscriberBuffer = 16
)

// Change is one observed mutation of the local store.
type Change struct {
	Type    string         `json:"type"`
	Product domain.Product `json:"product"`
}

// Hub fans out local store changes to presentation subscribers. Publishing
// never blocks: a slow subscriber just misses events past its channel buffer.
type Hub struct {
	mu               sync.Mutex
	buffer           []Change
	subs             map[uint64]chan Change
	nextID           uint64
	bufferSize       int
	subscriberBuffer int
}

// Subscription is one live view of store changes. Callers must Close it
// when done or the subscriber channel leaks.
type Subscription struct {
	hub  *Hub
	id   uint64
	ch   chan Change
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subs:             make(map[uint64]chan Change),
		bufferSize:       defaultBufferSize,
		subscriberBuffer: defaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(change Change) {
	if h == nil {
		return
	}

	h.mu.Lock()
	h.buffer = append(h.buffer, change)
	if len(h.buffer) > h.bufferSize {
		h.buffer = h.buffer[len(h.buffer)-h.bufferSize:]
	}
	subs := make([]chan Change, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// Subscribe registers a new observer and returns the recent change backlog.
func (h *Hub) Subscribe() (*Subscription, []Change) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan Change, h.subscriberBuffer)
	h.subs[id] = ch
	backlog := append([]Change(nil), h.buffer...)
	h.mu.Unlock()

	return &Subscription{hub: h, id: id, ch: ch}, backlog
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (s *Subscription) Changes() <-chan Change {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}
