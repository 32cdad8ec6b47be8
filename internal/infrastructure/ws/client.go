package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

// JoinGate decides whether a connection may enter a room. It normalizes the
// raw tag, applies the room's password policy, and returns the canonical tag
// plus the room's connection cap.
type JoinGate func(ctx context.Context, rawTag, password string) (tag string, maxUsers int, err error)

type Client struct {
	conn    *connWrapper
	Message chan *Message
	ID      string
	Tag     string
}

func NewClient(conn *websocket.Conn, id string) *Client {
	return &Client{
		conn:    newConnWrapper(conn),
		Message: make(chan *Message, 64), // buffered to avoid dead-locks on slow clients
		ID:      id,
	}
}

type inboundFrame struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	Password string `json:"password"`
}

// ReadMessages pumps inbound frames until the connection drops. The only
// frame a client sends is a join request; everything else flows server to
// client.
func (c *Client) ReadMessages(ctx context.Context, hub *Hub, gate JoinGate) {
	defer func() {
		hub.Remove(c)
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error (client %s): %v", c.ID, err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		if frame.Type != "join" {
			continue
		}

		tag, maxUsers, err := gate(ctx, frame.Room, frame.Password)
		if err != nil {
			c.Message <- NewJoinFailed(frame.Room, err.Error())
			continue
		}

		if err := hub.Join(c, tag, maxUsers); err != nil {
			c.Message <- NewJoinFailed(tag, "room is full")
			continue
		}

		c.Tag = tag
		c.Message <- NewJoined(tag)
	}
}

func (c *Client) WriteMessages() {
	defer func() {
		_ = c.conn.Close()
	}()

	for msg := range c.Message {
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("ws write error (client %s): %v", c.ID, err)
			break
		}
	}
}
