package files

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"sort"
	"strconv"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/events"
	"github.com/cliptag/cliptag/internal/infrastructure/json"
	"github.com/cliptag/cliptag/internal/infrastructure/ws"
	"github.com/cliptag/cliptag/internal/presentation/pipeline"
	"github.com/go-chi/chi/v5"
)

// multipartMemory caps how much of an upload is buffered in RAM before the
// multipart reader spills to temp files.
const multipartMemory = 32 << 20

type Handler struct {
	store        domain.ContentStore
	hub          *ws.Hub
	publisher    *events.ContentPublisher
	maxFileBytes int64
}

func NewHandler(store domain.ContentStore, hub *ws.Hub, publisher *events.ContentPublisher, maxFileBytes int64) *Handler {
	return &Handler{
		store:        store,
		hub:          hub,
		publisher:    publisher,
		maxFileBytes: maxFileBytes,
	}
}

// UploadFileHandler accepts one multipart file under the "file" field,
// stores it, and announces the upload to the room.
func (h *Handler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := pipeline.RoomFromContext(r.Context())
	if !ok {
		json.WriteInternalError(w, errors.New("room missing from context"))
		return
	}

	if h.maxFileBytes > 0 {
		// Leave headroom for the multipart framing around the payload.
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileBytes+1<<20)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			json.WriteError(w, http.StatusRequestEntityTooLarge, err, "File exceeds the maximum upload size")
			return
		}
		json.WriteBadRequestError(w, "Invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		json.WriteBadRequestError(w, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	entry, err := h.store.StoreFile(r.Context(), room.Tag, header.Filename, mimeType, data)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFileTooLarge):
			json.WriteError(w, http.StatusRequestEntityTooLarge, err, "File exceeds the maximum upload size")
		case errors.Is(err, domain.ErrEmptyFile):
			json.WriteBadRequestError(w, "Empty file")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	h.hub.Broadcast(ws.NewFileUpload(room.Tag, entry.ID, entry.OriginalName, entry.Size, entry.UploadedAt))

	if err := h.publisher.PublishFileUploaded(r.Context(), entry); err != nil {
		log.Printf("Error publishing file upload: %v", err)
	}

	json.Write(w, http.StatusCreated, entry)
}

// ListFilesHandler returns the metadata of every live file in the room,
// newest first.
func (h *Handler) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := pipeline.RoomFromContext(r.Context())
	if !ok {
		json.WriteInternalError(w, errors.New("room missing from context"))
		return
	}

	entries := h.store.GetFiles(r.Context(), room.Tag)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UploadedAt.After(entries[j].UploadedAt)
	})

	var totalSize int64
	for _, e := range entries {
		totalSize += e.Size
	}

	json.Write(w, http.StatusOK, listFilesResponse{
		Files:      entries,
		TotalFiles: len(entries),
		TotalSize:  totalSize,
	})
}

func (h *Handler) GetFileHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := pipeline.RoomFromContext(r.Context())
	if !ok {
		json.WriteInternalError(w, errors.New("room missing from context"))
		return
	}

	fileID := chi.URLParam(r, "fileId")

	entry, exists := h.store.GetFile(r.Context(), room.Tag, fileID)
	if !exists {
		json.WriteError(w, http.StatusNotFound, domain.ErrFileNotFound, "File not found")
		return
	}

	json.Write(w, http.StatusOK, entry)
}

// DownloadFileHandler streams the file bytes as an attachment.
func (h *Handler) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := pipeline.RoomFromContext(r.Context())
	if !ok {
		json.WriteInternalError(w, errors.New("room missing from context"))
		return
	}

	fileID := chi.URLParam(r, "fileId")

	meta, reader, err := h.store.OpenFile(r.Context(), room.Tag, fileID)
	if err != nil {
		json.WriteError(w, http.StatusNotFound, err, "File not found")
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": meta.OriginalName})

	w.Header().Set("Content-Type", meta.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.Header().Set("Content-Disposition", disposition)

	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("Error streaming file %s: %v", fileID, err)
	}
}

// DeleteFileHandler removes one file and announces the removal.
func (h *Handler) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := pipeline.RoomFromContext(r.Context())
	if !ok {
		json.WriteInternalError(w, errors.New("room missing from context"))
		return
	}

	fileID := chi.URLParam(r, "fileId")

	if _, exists := h.store.GetFile(r.Context(), room.Tag, fileID); !exists {
		json.WriteError(w, http.StatusNotFound, domain.ErrFileNotFound, "File not found")
		return
	}

	h.store.DeleteFile(r.Context(), room.Tag, fileID)

	h.hub.Broadcast(ws.NewFileDelete(room.Tag, fileID))

	if err := h.publisher.PublishFileDeleted(r.Context(), room.Tag, fileID); err != nil {
		log.Printf("Error publishing file delete: %v", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
