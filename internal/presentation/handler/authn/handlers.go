package authn

import (
	"errors"
	"net/http"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/auth"
	"github.com/cliptag/cliptag/internal/infrastructure/json"
)

// Handler issues the bearer tokens room ownership hangs off. Registration is
// optional for everything except owning a room.
type Handler struct {
	identity *auth.Service
}

func NewHandler(identity *auth.Service) *Handler {
	return &Handler{identity: identity}
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user, token, err := h.identity.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			json.WriteError(w, http.StatusConflict, err, "Username is already taken")
		default:
			json.WriteValidationError(w, err)
		}
		return
	}

	json.Write(w, http.StatusCreated, toAuthResponse(user, token))
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user, token, err := h.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			json.WriteError(w, http.StatusUnauthorized, err, "Invalid username or password")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, toAuthResponse(user, token))
}

func toAuthResponse(user *domain.User, token string) authResponse {
	return authResponse{
		User: userResponse{
			ID:        user.ID,
			Username:  user.Username,
			CreatedAt: user.CreatedAt,
		},
		Token: token,
	}
}
