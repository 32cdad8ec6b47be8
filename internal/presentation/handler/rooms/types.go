package rooms

import (
	"time"

	"github.com/cliptag/cliptag/internal/domain"
)

// createRoomRequest carries explicit room setup. Tag is required; the rest
// defaults to an open room with the deployment's connection cap.
type createRoomRequest struct {
	Tag      string `json:"tag"`
	Password string `json:"password,omitempty"`
	IsLocked bool   `json:"isLocked,omitempty"`
	MaxUsers int    `json:"maxUsers,omitempty"`
}

type renameRoomRequest struct {
	Tag string `json:"tag"`
}

type validatePasswordRequest struct {
	Password string `json:"password"`
}

type validatePasswordResponse struct {
	Valid bool `json:"valid"`
}

// roomResponse is the public view of a room: the password hash never leaves
// the registry, only the fact that one exists.
type roomResponse struct {
	Tag              string     `json:"tag"`
	RequiresPassword bool       `json:"requiresPassword"`
	IsLocked         bool       `json:"isLocked"`
	MaxUsers         int        `json:"maxUsers"`
	UserCount        int        `json:"userCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
}

func toRoomResponse(room *domain.Room, userCount int) roomResponse {
	return roomResponse{
		Tag:              room.Tag,
		RequiresPassword: room.RequiresPassword(),
		IsLocked:         room.IsLocked,
		MaxUsers:         room.MaxUsers,
		UserCount:        userCount,
		CreatedAt:        room.CreatedAt,
		ExpiresAt:        room.ExpiresAt,
	}
}
