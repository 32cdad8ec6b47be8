package rooms

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/auth"
	"github.com/cliptag/cliptag/internal/infrastructure/events"
	"github.com/cliptag/cliptag/internal/infrastructure/json"
	"github.com/cliptag/cliptag/internal/infrastructure/ws"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	registry  domain.RoomRegistry
	store     domain.ContentStore
	hub       *ws.Hub
	identity  *auth.Service
	publisher *events.ContentPublisher
}

func NewHandler(
	registry domain.RoomRegistry,
	store domain.ContentStore,
	hub *ws.Hub,
	identity *auth.Service,
	publisher *events.ContentPublisher,
) *Handler {
	return &Handler{
		registry:  registry,
		store:     store,
		hub:       hub,
		identity:  identity,
		publisher: publisher,
	}
}

// CreateRoomHandler sets a room up explicitly, ahead of any content. This is
// how a room gets a password or a custom connection cap; rooms touched via
// content routes vivify with defaults instead.
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	tag, err := domain.NormalizeTag(req.Tag)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	// Ownership is optional: an anonymous creator gets a room nobody can
	// rename or delete through the management API.
	ownerID := ""
	if user := h.currentUser(r); user != nil {
		ownerID = user.ID
	}

	room, err := h.registry.Create(r.Context(), tag, domain.CreateRoomOptions{
		Password: req.Password,
		IsLocked: req.IsLocked,
		MaxUsers: req.MaxUsers,
		OwnerID:  ownerID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomExists):
			json.WriteError(w, http.StatusConflict, err, "Room already exists")
		default:
			log.Printf("Failed to create room %s: %v", tag, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	if err := h.publisher.PublishRoomCreated(r.Context(), *room); err != nil {
		log.Printf("Error publishing room created: %v", err)
	}

	json.Write(w, http.StatusCreated, toRoomResponse(room, h.hub.Occupancy(tag)))
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	tag, err := domain.NormalizeTag(chi.URLParam(r, "tag"))
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, err := h.registry.Get(r.Context(), tag)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, toRoomResponse(room, h.hub.Occupancy(tag)))
}

// ValidatePasswordHandler checks a candidate password without granting
// anything; clients use it to pre-validate a prompt before firing the real
// request.
func (h *Handler) ValidatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	tag, err := domain.NormalizeTag(chi.URLParam(r, "tag"))
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	var req validatePasswordRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	valid, err := h.registry.ValidatePassword(r.Context(), tag, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, validatePasswordResponse{Valid: valid})
}

// RenameRoomHandler moves the room to a new tag, carrying its clipboard and
// files along. Owner only.
func (h *Handler) RenameRoomHandler(w http.ResponseWriter, r *http.Request) {
	oldTag, err := domain.NormalizeTag(chi.URLParam(r, "tag"))
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	var req renameRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	newTag, err := domain.NormalizeTag(req.Tag)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user := h.currentUser(r)
	if user == nil {
		json.WriteError(w, http.StatusUnauthorized, domain.ErrInvalidToken, "Missing or invalid authentication")
		return
	}

	room, err := h.registry.Rename(r.Context(), oldTag, newTag, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		case errors.Is(err, domain.ErrNotRoomOwner):
			json.WriteError(w, http.StatusForbidden, err, "Only the room owner can rename it")
		case errors.Is(err, domain.ErrRoomExists):
			json.WriteError(w, http.StatusConflict, err, "Target tag is already taken")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	h.migrateContent(r, oldTag, newTag)

	json.Write(w, http.StatusOK, toRoomResponse(room, h.hub.Occupancy(newTag)))
}

// DeleteRoomHandler tears the room down: registry record, clipboard, and
// every file. Owner only.
func (h *Handler) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	tag, err := domain.NormalizeTag(chi.URLParam(r, "tag"))
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user := h.currentUser(r)
	if user == nil {
		json.WriteError(w, http.StatusUnauthorized, domain.ErrInvalidToken, "Missing or invalid authentication")
		return
	}

	room, err := h.registry.Get(r.Context(), tag)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	if !room.IsOwner(user.ID) {
		json.WriteError(w, http.StatusForbidden, domain.ErrNotRoomOwner, "Only the room owner can delete it")
		return
	}

	if err := h.registry.Delete(r.Context(), tag); err != nil {
		json.WriteInternalError(w, err)
		return
	}

	h.store.DeleteClipboard(r.Context(), tag)
	h.store.DeleteAllFiles(r.Context(), tag)

	if err := h.publisher.PublishRoomDeleted(r.Context(), *room); err != nil {
		log.Printf("Error publishing room deleted: %v", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// migrateContent re-homes the clipboard and files under the new tag. File
// IDs change across a rename; listings refetch on the next load.
func (h *Handler) migrateContent(r *http.Request, oldTag, newTag string) {
	ctx := r.Context()

	if clip, ok := h.store.GetClipboard(ctx, oldTag); ok {
		if _, err := h.store.SetClipboard(ctx, newTag, clip.Content); err != nil {
			log.Printf("Failed to move clipboard %s -> %s: %v", oldTag, newTag, err)
		}
		h.store.DeleteClipboard(ctx, oldTag)
	}

	for _, meta := range h.store.GetFiles(ctx, oldTag) {
		_, reader, err := h.store.OpenFile(ctx, oldTag, meta.ID)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			log.Printf("Failed to read file %s during rename: %v", meta.ID, err)
			continue
		}
		if _, err := h.store.StoreFile(ctx, newTag, meta.OriginalName, meta.MimeType, data); err != nil {
			log.Printf("Failed to move file %s -> %s: %v", meta.ID, newTag, err)
			continue
		}
		h.store.DeleteFile(ctx, oldTag, meta.ID)
	}
}

// currentUser resolves the optional bearer token; nil means anonymous.
func (h *Handler) currentUser(r *http.Request) *domain.User {
	if h.identity == nil {
		return nil
	}

	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil
	}

	user, err := h.identity.Identify(r.Context(), token)
	if err != nil {
		return nil
	}

	return user
}
