package clip

import (
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/events"
	"github.com/cliptag/cliptag/internal/infrastructure/json"
	"github.com/cliptag/cliptag/internal/infrastructure/ws"
	"github.com/cliptag/cliptag/internal/presentation/pipeline"
)

type Handler struct {
	store     domain.ContentStore
	hub       *ws.Hub
	publisher *events.ContentPublisher
}

func NewHandler(store domain.ContentStore, hub *ws.Hub, publisher *events.ContentPublisher) *Handler {
	return &Handler{
		store:     store,
		hub:       hub,
		publisher: publisher,
	}
}

// GetClipboardHandler returns the room's current clipboard value. A room
// with nothing on the clipboard is a normal empty response, not an error.
func (h *Handler) GetClipboardHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := pipeline.RoomFromContext(r.Context())
	if !ok {
		json.WriteInternalError(w, errors.New("room missing from context"))
		return
	}

	clip, exists := h.store.GetClipboard(r.Context(), room.Tag)
	if !exists {
		json.Write(w, http.StatusOK, clipboardResponse{
			Tag:    room.Tag,
			Exists: false,
		})
		return
	}

	json.Write(w, http.StatusOK, toResponse(clip))
}

// SetClipboardHandler replaces the clipboard value, then announces the
// change to the room. The store write completes before any broadcast starts,
// so a client refetching on the event always sees the new value.
func (h *Handler) SetClipboardHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := pipeline.RoomFromContext(r.Context())
	if !ok {
		json.WriteInternalError(w, errors.New("room missing from context"))
		return
	}

	var req setClipboardRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	clip, err := h.store.SetClipboard(r.Context(), room.Tag, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrContentTooLong):
			json.WriteError(w, http.StatusBadRequest, err, "Clipboard content exceeds the maximum length")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	h.hub.Broadcast(ws.NewClipboardUpdate(room.Tag, clip.Content, clip.UpdatedAt))

	if err := h.publisher.PublishClipboardUpdated(r.Context(), clip); err != nil {
		log.Printf("Error publishing clipboard update: %v", err)
	}

	json.Write(w, http.StatusOK, toResponse(clip))
}

// DeleteClipboardHandler clears the clipboard. Idempotent; clearing an
// already-empty clipboard still succeeds and still notifies the room.
func (h *Handler) DeleteClipboardHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := pipeline.RoomFromContext(r.Context())
	if !ok {
		json.WriteInternalError(w, errors.New("room missing from context"))
		return
	}

	h.store.DeleteClipboard(r.Context(), room.Tag)

	h.hub.Broadcast(ws.NewClipboardUpdate(room.Tag, "", time.Now()))

	if err := h.publisher.PublishClipboardDeleted(r.Context(), room.Tag); err != nil {
		log.Printf("Error publishing clipboard delete: %v", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func toResponse(clip *domain.Clipboard) clipboardResponse {
	resp := clipboardResponse{
		Tag:       clip.Tag,
		Content:   clip.Content,
		Exists:    true,
		UpdatedAt: &clip.UpdatedAt,
	}

	if clip.ExpiresAt != nil {
		minutes := int(math.Ceil(time.Until(*clip.ExpiresAt).Minutes()))
		if minutes < 0 {
			minutes = 0
		}
		resp.ExpiresIn = &expiresInfo{
			MinutesRemaining: minutes,
			ExpiresAt:        *clip.ExpiresAt,
		}
	}

	return resp
}
