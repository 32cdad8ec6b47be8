package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/json"
	"github.com/go-chi/chi/v5"
)

// PasswordHeader carries the room password on content requests.
const PasswordHeader = "X-Room-Password"

type ctxKey int

const roomKey ctxKey = iota

// Policy selects what happens when the tag has no room record yet.
type Policy int

const (
	// AutoVivify creates the room on first touch. Content routes use this:
	// reading or writing a tag that was never set up just works.
	AutoVivify Policy = iota

	// RequireExisting responds 404 for unknown tags. Management routes use
	// this so they never create rooms as a side effect.
	RequireExisting
)

// RoomAccess is the shared front door for every tag-scoped route: it
// normalizes the tag, resolves (or vivifies) the room, and enforces the
// room's password before the handler runs. Handlers behind it can assume
// RoomFromContext always succeeds.
func RoomAccess(registry domain.RoomRegistry, policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag, err := domain.NormalizeTag(chi.URLParam(r, "tag"))
			if err != nil {
				json.WriteValidationError(w, err)
				return
			}

			ctx := r.Context()

			room, err := Resolve(ctx, registry, tag, policy)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrRoomNotFound):
				json.WriteError(w, http.StatusNotFound, err, "Room not found")
				return
			default:
				json.WriteInternalError(w, err)
				return
			}

			if room.RequiresPassword() {
				ok, err := registry.ValidatePassword(ctx, tag, r.Header.Get(PasswordHeader))
				if err != nil {
					json.WriteInternalError(w, err)
					return
				}
				if !ok {
					json.WritePasswordRequired(w, "This room requires a password")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, roomKey, room)))
		})
	}
}

// Resolve looks the room up, creating it when the policy allows. The create
// path tolerates losing a race: whoever vivified first wins and we use
// their record.
func Resolve(ctx context.Context, registry domain.RoomRegistry, tag string, policy Policy) (*domain.Room, error) {
	room, err := registry.Get(ctx, tag)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, domain.ErrRoomNotFound) || policy != AutoVivify {
		return nil, err
	}

	room, err = registry.Create(ctx, tag, domain.CreateRoomOptions{})
	if errors.Is(err, domain.ErrRoomExists) {
		return registry.Get(ctx, tag)
	}

	return room, err
}

// RoomFromContext returns the room resolved by RoomAccess.
func RoomFromContext(ctx context.Context) (*domain.Room, bool) {
	room, ok := ctx.Value(roomKey).(*domain.Room)
	return room, ok
}
