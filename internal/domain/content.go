package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

const (
	// MaxClipboardChars is the ceiling on clipboard content length.
	MaxClipboardChars = 10_000
)

var (
	ErrContentTooLong = errors.New("clipboard content too long")
	ErrFileTooLarge   = errors.New("file exceeds size limit")
	ErrFileNotFound   = errors.New("file not found")
	ErrEmptyFile      = errors.New("empty file")
)

// Clipboard is the single current text value of a room. Writes replace the
// previous value atomically; there is never more than one live entry per tag.
type Clipboard struct {
	Tag       string     `json:"tag"`
	Content   string     `json:"content"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// FileEntry is one uploaded file in a room. Unlike the clipboard, files
// accumulate: many entries may coexist under one tag, each addressed by ID.
type FileEntry struct {
	ID           string     `json:"fileId"`
	Tag          string     `json:"tag"`
	OriginalName string     `json:"fileName"`
	MimeType     string     `json:"mimeType"`
	Size         int64      `json:"fileSize"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`

	data []byte
}

// NewFileEntry builds a file entry around its raw bytes. The bytes are held
// in memory for the lifetime of the entry.
func NewFileEntry(id, tag, name, mimeType string, data []byte, uploadedAt time.Time) *FileEntry {
	return &FileEntry{
		ID:           id,
		Tag:          tag,
		OriginalName: name,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		UploadedAt:   uploadedAt,
		data:         data,
	}
}

// Meta returns a copy of the entry without its content bytes, for listings.
func (f *FileEntry) Meta() FileEntry {
	meta := *f
	meta.data = nil
	return meta
}

// Bytes exposes the raw content for download paths.
func (f *FileEntry) Bytes() []byte {
	return f.data
}

// ContentStore holds clipboard text and file blobs keyed by room tag, with
// TTL-based eviction. Missing clipboard entries are not errors: callers
// present "no content yet" rather than a failure. Deletes are idempotent.
type ContentStore interface {
	GetClipboard(ctx context.Context, tag string) (*Clipboard, bool)
	SetClipboard(ctx context.Context, tag, content string) (*Clipboard, error)
	DeleteClipboard(ctx context.Context, tag string)

	StoreFile(ctx context.Context, tag, name, mimeType string, data []byte) (*FileEntry, error)
	GetFiles(ctx context.Context, tag string) []FileEntry
	GetFile(ctx context.Context, tag, fileID string) (*FileEntry, bool)
	OpenFile(ctx context.Context, tag, fileID string) (FileEntry, io.Reader, error)
	DeleteFile(ctx context.Context, tag, fileID string)
	DeleteAllFiles(ctx context.Context, tag string)
}
