// Package hub fans published accident events out to live per-vehicle
// subscribers. State is process-lifetime only; durability lives in the
// event log.
package hub

import (
	"sync"

	"github.com/google/uuid"

	"accident-monitor/internal/domain"
	"accident-monitor/internal/metrics"
)

// Subscription is one live delivery channel. Events arrive on C in publish
// order until Unsubscribe closes it.
type Subscription struct {
	ID  uuid.UUID
	Ref string
	C   chan *domain.AccidentEvent
}

// Hub maps canonical vehicle references to their current subscribers.
// Subscribe, Unsubscribe, and Publish are safe under concurrent use from
// ingestion and stream-lifecycle goroutines.
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]map[uuid.UUID]*Subscription
	bufferSize int
}

func New(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	return &Hub{
		subs:       make(map[string]map[uuid.UUID]*Subscription),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a new delivery channel for ref.
func (h *Hub) Subscribe(ref string) *Subscription {
	sub := &Subscription{
		ID:  uuid.New(),
		Ref: ref,
		C:   make(chan *domain.AccidentEvent, h.bufferSize),
	}

	h.mu.Lock()
	if h.subs[ref] == nil {
		h.subs[ref] = make(map[uuid.UUID]*Subscription)
	}
	h.subs[ref][sub.ID] = sub
	h.mu.Unlock()

	return sub
}

// Unsubscribe removes the handle and closes its channel. Idempotent: calling
// it again, or for a handle already removed, is safe.
func (h *Hub) Unsubscribe(ref string, sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	handles, ok := h.subs[ref]
	if !ok {
		return
	}
	if _, ok := handles[sub.ID]; !ok {
		return
	}
	delete(handles, sub.ID)
	if len(handles) == 0 {
		delete(h.subs, ref)
	}
	close(sub.C)
}

// Publish delivers the event to every handle currently registered for ref.
// Delivery is at-most-once: a subscriber whose buffer is full drops the
// event rather than blocking the publisher.
func (h *Hub) Publish(ref string, evt *domain.AccidentEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[ref] {
		select {
		case sub.C <- evt:
			metrics.FramesPublished.Add(1)
		default:
			metrics.FramesDropped.Add(1)
		}
	}
}

// SubscriberCount reports the live handles for ref.
func (h *Hub) SubscriberCount(ref string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ref])
}
