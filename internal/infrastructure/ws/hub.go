package ws

import (
	"sync"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/metrics"
)

// Hub tracks which clients are in which room and fans events out to them.
//
// Mutations (Join, Remove) take the write lock; Broadcast takes the read
// lock and does non-blocking sends into each client's buffered channel, so
// one slow reader never stalls the room. A client's channel is closed only
// under the write lock after it has been removed from every map, which
// makes a send on a closed channel impossible.
type Hub struct {
	rooms      map[string]map[*Client]struct{}
	membership map[*Client]string
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		membership: make(map[*Client]string),
	}
}

// Join adds the client to the room, enforcing the room's connection cap,
// and announces the new occupancy to everyone in it.
func (h *Hub) Join(c *Client, tag string, maxUsers int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.membership[c]; ok {
		h.removeLocked(c, prev)
	}

	room := h.rooms[tag]
	if maxUsers > 0 && len(room) >= maxUsers {
		return domain.ErrRoomFull
	}

	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[tag] = room
	}
	room[c] = struct{}{}
	h.membership[c] = tag

	metrics.WSConnections.Inc()
	h.sendToRoomLocked(tag, NewUserCount(tag, len(room)))

	return nil
}

// Remove detaches the client from its room (if any), announces the new
// occupancy, and closes the client's send channel.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tag, ok := h.membership[c]; ok {
		h.removeLocked(c, tag)
	}
	close(c.Message)
}

func (h *Hub) removeLocked(c *Client, tag string) {
	delete(h.membership, c)

	room := h.rooms[tag]
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, tag)
	} else {
		h.sendToRoomLocked(tag, NewUserCount(tag, len(room)))
	}

	metrics.WSConnections.Dec()
}

// Broadcast fans the message out to every client in msg.Tag. Delivery is
// best effort: a client whose buffer is full misses the frame.
func (h *Hub) Broadcast(msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.sendToRoomLocked(msg.Tag, msg)

	metrics.BroadcastEvents.WithLabelValues(msg.Type).Inc()
}

// Occupancy reports the number of live connections in the room.
func (h *Hub) Occupancy(tag string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[tag])
}

func (h *Hub) sendToRoomLocked(tag string, msg *Message) {
	for c := range h.rooms[tag] {
		select {
		case c.Message <- msg:
		default:
		}
	}
}
