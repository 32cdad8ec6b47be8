package clip

import "time"

type setClipboardRequest struct {
	Content string `json:"content"`
}

// expiresInfo tells clients how long the value survives; absent when the
// deployment runs without a clipboard TTL.
type expiresInfo struct {
	MinutesRemaining int       `json:"minutesRemaining"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

type clipboardResponse struct {
	Tag       string       `json:"tag"`
	Content   string       `json:"content"`
	Exists    bool         `json:"exists"`
	UpdatedAt *time.Time   `json:"updatedAt,omitempty"`
	ExpiresIn *expiresInfo `json:"expiresIn,omitempty"`
}
