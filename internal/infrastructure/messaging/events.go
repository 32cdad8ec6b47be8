package messaging

import (
	"time"

	"github.com/cliptag/cliptag/internal/domain"
)

const (
	ContentQueue    = "content_events"
	DeadLetterQueue = "dead_letter_queue"
)

type ClipboardEventData struct {
	Tag       string    `json:"tag"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FileEventData struct {
	Tag        string    `json:"tag"`
	FileID     string    `json:"fileId"`
	FileName   string    `json:"fileName,omitempty"`
	FileSize   int64     `json:"fileSize,omitempty"`
	UploadedAt time.Time `json:"uploadedAt,omitempty"`
}

type RoomEventData struct {
	Room domain.Room `json:"room"`
}
