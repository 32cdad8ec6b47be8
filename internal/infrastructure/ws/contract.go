package ws

import "time"

// Message is the envelope every realtime frame travels in. Tag names the
// room the event belongs to so a client multiplexing rooms can route it.
type Message struct {
	Type string `json:"type"`
	Tag  string `json:"room"`
	Data any    `json:"data"`
}

// Payload structs
type UserCountPayload struct {
	Count int `json:"count"`
}

type ClipboardUpdatePayload struct {
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FileUploadPayload struct {
	FileID     string    `json:"fileId"`
	FileName   string    `json:"fileName"`
	FileSize   int64     `json:"fileSize"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type FileDeletePayload struct {
	FileID string `json:"fileId"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

func NewUserCount(tag string, count int) *Message {
	return &Message{
		Type: UserCount,
		Tag:  tag,
		Data: UserCountPayload{Count: count},
	}
}

func NewClipboardUpdate(tag, content string, updatedAt time.Time) *Message {
	return &Message{
		Type: ClipboardUpdate,
		Tag:  tag,
		Data: ClipboardUpdatePayload{
			Content:   content,
			UpdatedAt: updatedAt,
		},
	}
}

func NewFileUpload(tag, fileID, fileName string, fileSize int64, uploadedAt time.Time) *Message {
	return &Message{
		Type: FileUpload,
		Tag:  tag,
		Data: FileUploadPayload{
			FileID:     fileID,
			FileName:   fileName,
			FileSize:   fileSize,
			UploadedAt: uploadedAt,
		},
	}
}

func NewFileDelete(tag, fileID string) *Message {
	return &Message{
		Type: FileDelete,
		Tag:  tag,
		Data: FileDeletePayload{FileID: fileID},
	}
}

func NewJoinFailed(tag, reason string) *Message {
	return &Message{
		Type: JoinFailed,
		Tag:  tag,
		Data: ErrorPayload{
			Code:    "JOIN_FAILED",
			Message: reason,
			Retry:   true,
		},
	}
}

func NewJoined(tag string) *Message {
	return &Message{
		Type: Joined,
		Tag:  tag,
	}
}
