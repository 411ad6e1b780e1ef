// internal/hub/hub.go
package hub

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hellohand/backend/internal/signal"
)

// Hub tracks the live broadcast group of every room and fans events out to
// the members subscribed at send time. There is no persistence or replay:
// a connection that joins after an event was sent never observes it.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Conn]struct{}
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Conn]struct{}),
		logger: logger,
	}
}

// Join adds the connection to its room's group. Idempotent.
func (h *Hub) Join(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.rooms[c.RoomID]
	if !ok {
		group = make(map[*Conn]struct{})
		h.rooms[c.RoomID] = group
	}
	group[c] = struct{}{}
}

// Leave removes the connection from its room's group, dropping the group
// once empty. Idempotent.
func (h *Hub) Leave(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.rooms[c.RoomID]
	if !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.rooms, c.RoomID)
	}
}

// Broadcast delivers the event to every connection currently subscribed to
// the room. The member set is snapshotted under the read lock so a slow
// receiver cannot stall membership changes; Conn.Send never blocks.
func (h *Hub) Broadcast(roomID string, ev signal.Event) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Send(ev)
	}
}

// GroupSize reports the current number of subscribed connections.
func (h *Hub) GroupSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
