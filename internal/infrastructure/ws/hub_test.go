package ws

import (
	"testing"
	"time"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string) *Client {
	return &Client{
		Message: make(chan *Message, 64),
		ID:      id,
	}
}

// drain pulls every frame currently buffered for the client.
func drain(c *Client) []*Message {
	var out []*Message
	for {
		select {
		case msg := <-c.Message:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHub_JoinAnnouncesOccupancy(t *testing.T) {
	hub := NewHub()

	a := newTestClient("a")
	require.NoError(t, hub.Join(a, "AB12", 10))

	msgs := drain(a)
	require.Len(t, msgs, 1)
	assert.Equal(t, UserCount, msgs[0].Type)
	assert.Equal(t, UserCountPayload{Count: 1}, msgs[0].Data)

	b := newTestClient("b")
	require.NoError(t, hub.Join(b, "AB12", 10))

	// Both members see the bumped count.
	msgsA := drain(a)
	require.Len(t, msgsA, 1)
	assert.Equal(t, UserCountPayload{Count: 2}, msgsA[0].Data)

	msgsB := drain(b)
	require.Len(t, msgsB, 1)
	assert.Equal(t, UserCountPayload{Count: 2}, msgsB[0].Data)
}

func TestHub_RemoveAnnouncesOccupancy(t *testing.T) {
	hub := NewHub()

	a := newTestClient("a")
	b := newTestClient("b")
	require.NoError(t, hub.Join(a, "AB12", 10))
	require.NoError(t, hub.Join(b, "AB12", 10))
	drain(a)
	drain(b)

	hub.Remove(b)

	msgs := drain(a)
	require.Len(t, msgs, 1)
	assert.Equal(t, UserCountPayload{Count: 1}, msgs[0].Data)
	assert.Equal(t, 1, hub.Occupancy("AB12"))

	// The removed client's channel is closed.
	_, open := <-b.Message
	assert.False(t, open)
}

func TestHub_BroadcastScopedToRoom(t *testing.T) {
	hub := NewHub()

	a := newTestClient("a")
	b := newTestClient("b")
	other := newTestClient("other")
	require.NoError(t, hub.Join(a, "AB12", 10))
	require.NoError(t, hub.Join(b, "AB12", 10))
	require.NoError(t, hub.Join(other, "ZZ99", 10))
	drain(a)
	drain(b)
	drain(other)

	hub.Broadcast(NewClipboardUpdate("AB12", "hello", time.Now()))

	for _, c := range []*Client{a, b} {
		msgs := drain(c)
		require.Len(t, msgs, 1, "client %s should receive the event", c.ID)
		assert.Equal(t, ClipboardUpdate, msgs[0].Type)
	}

	assert.Empty(t, drain(other), "clients in other rooms must not receive the event")
}

func TestHub_EnforcesMaxUsers(t *testing.T) {
	hub := NewHub()

	a := newTestClient("a")
	b := newTestClient("b")
	c := newTestClient("c")
	require.NoError(t, hub.Join(a, "AB12", 2))
	require.NoError(t, hub.Join(b, "AB12", 2))

	err := hub.Join(c, "AB12", 2)
	assert.ErrorIs(t, err, domain.ErrRoomFull)
	assert.Equal(t, 2, hub.Occupancy("AB12"))

	// A slot opens up when someone leaves.
	hub.Remove(a)
	require.NoError(t, hub.Join(c, "AB12", 2))
}

func TestHub_EmptyRoomIsForgotten(t *testing.T) {
	hub := NewHub()

	a := newTestClient("a")
	require.NoError(t, hub.Join(a, "AB12", 10))
	hub.Remove(a)

	assert.Equal(t, 0, hub.Occupancy("AB12"))
}

func TestHub_SwitchingRoomsLeavesTheOld(t *testing.T) {
	hub := NewHub()

	a := newTestClient("a")
	watcher := newTestClient("w")
	require.NoError(t, hub.Join(watcher, "AB12", 10))
	require.NoError(t, hub.Join(a, "AB12", 10))
	drain(a)
	drain(watcher)

	require.NoError(t, hub.Join(a, "CD34", 10))

	assert.Equal(t, 1, hub.Occupancy("AB12"))
	assert.Equal(t, 1, hub.Occupancy("CD34"))

	msgs := drain(watcher)
	require.Len(t, msgs, 1)
	assert.Equal(t, UserCountPayload{Count: 1}, msgs[0].Data)
}
