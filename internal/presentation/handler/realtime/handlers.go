package realtime

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/ws"
	"github.com/cliptag/cliptag/internal/presentation/pipeline"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *ws.Hub
	registry domain.RoomRegistry
	upgrader websocket.Upgrader
}

func NewHandler(hub *ws.Hub, registry domain.RoomRegistry) *Handler {
	return &Handler{
		hub:      hub,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the connection and starts the client pumps. Room
// selection happens over the socket via a join frame; the gate applies the
// same vivify-and-password rules as the HTTP content routes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(conn, uuid.NewString())

	// The password may ride the connection URL instead of the join frame.
	queryPassword := r.URL.Query().Get("password")

	gate := func(ctx context.Context, rawTag, password string) (string, int, error) {
		if password == "" {
			password = queryPassword
		}

		tag, err := domain.NormalizeTag(rawTag)
		if err != nil {
			return "", 0, err
		}

		room, err := pipeline.Resolve(ctx, h.registry, tag, pipeline.AutoVivify)
		if err != nil {
			return "", 0, err
		}

		if room.RequiresPassword() {
			ok, err := h.registry.ValidatePassword(ctx, tag, password)
			if err != nil {
				return "", 0, err
			}
			if !ok {
				return "", 0, errors.New("invalid room password")
			}
		}

		return tag, room.MaxUsers, nil
	}

	go client.WriteMessages()
	go client.ReadMessages(context.Background(), h.hub, gate)
}
