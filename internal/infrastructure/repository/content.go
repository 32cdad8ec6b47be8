package repository

import (
	"bytes"
	"context"
	"hash/fnv"
	"io"
	"sync"
	"time"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/logging"
	"github.com/cliptag/cliptag/internal/infrastructure/metrics"
	"github.com/google/uuid"
)

const shardCount = 32

// Options tune the in-memory content store. Zero TTLs mean entries never
// expire; zero limits fall back to the domain defaults.
type Options struct {
	ClipboardTTL      time.Duration
	FileTTL           time.Duration
	SweepInterval     time.Duration
	MaxClipboardChars int
	MaxFileBytes      int64
}

type clipEntry struct {
	content   string
	updatedAt time.Time
}

type fileRecord struct {
	meta domain.FileEntry
	data []byte
}

// shard holds the content for a slice of the tag space. Each shard has its
// own lock so activity in one room never contends with unrelated rooms that
// hash elsewhere.
type shard struct {
	clips map[string]*clipEntry
	files map[string]map[string]*fileRecord // tag -> fileID -> record
	mu    sync.RWMutex
}

type contentStore struct {
	shards [shardCount]*shard
	opts   Options
	logger logging.Logger

	// now is swappable so eviction can be tested without sleeping.
	now func() time.Time
}

func NewContentStore(opts Options, logger logging.Logger) *contentStore {
	if opts.MaxClipboardChars <= 0 {
		opts.MaxClipboardChars = domain.MaxClipboardChars
	}

	cs := &contentStore{
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
	for i := range cs.shards {
		cs.shards[i] = &shard{
			clips: make(map[string]*clipEntry),
			files: make(map[string]map[string]*fileRecord),
		}
	}

	return cs
}

func (cs *contentStore) shardFor(tag string) *shard {
	h := fnv.New32a()
	h.Write([]byte(tag))
	return cs.shards[h.Sum32()%shardCount]
}

func (cs *contentStore) clipExpiry(updatedAt time.Time) *time.Time {
	if cs.opts.ClipboardTTL <= 0 {
		return nil
	}
	t := updatedAt.Add(cs.opts.ClipboardTTL)
	return &t
}

func (cs *contentStore) fileExpiry(uploadedAt time.Time) *time.Time {
	if cs.opts.FileTTL <= 0 {
		return nil
	}
	t := uploadedAt.Add(cs.opts.FileTTL)
	return &t
}

func (cs *contentStore) GetClipboard(ctx context.Context, tag string) (*domain.Clipboard, bool) {
	s := cs.shardFor(tag)

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.clips[tag]
	if !exists {
		return nil, false
	}

	return &domain.Clipboard{
		Tag:       tag,
		Content:   entry.content,
		UpdatedAt: entry.updatedAt,
		ExpiresAt: cs.clipExpiry(entry.updatedAt),
	}, true
}

// SetClipboard replaces the room's clipboard value. A write resets the
// expiry clock; last write wins under concurrency.
func (cs *contentStore) SetClipboard(ctx context.Context, tag string, content string) (*domain.Clipboard, error) {
	if len([]rune(content)) > cs.opts.MaxClipboardChars {
		return nil, domain.ErrContentTooLong
	}

	s := cs.shardFor(tag)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := cs.now()
	s.clips[tag] = &clipEntry{content: content, updatedAt: now}

	return &domain.Clipboard{
		Tag:       tag,
		Content:   content,
		UpdatedAt: now,
		ExpiresAt: cs.clipExpiry(now),
	}, nil
}

func (cs *contentStore) DeleteClipboard(ctx context.Context, tag string) {
	s := cs.shardFor(tag)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clips, tag)
}

func (cs *contentStore) StoreFile(ctx context.Context, tag, name, mimeType string, data []byte) (*domain.FileEntry, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if cs.opts.MaxFileBytes > 0 && int64(len(data)) > cs.opts.MaxFileBytes {
		return nil, domain.ErrFileTooLarge
	}

	entry := domain.NewFileEntry(uuid.NewString(), tag, name, mimeType, data, cs.now())
	entry.ExpiresAt = cs.fileExpiry(entry.UploadedAt)

	s := cs.shardFor(tag)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.files[tag] == nil {
		s.files[tag] = make(map[string]*fileRecord)
	}
	s.files[tag][entry.ID] = &fileRecord{meta: entry.Meta(), data: data}

	meta := entry.Meta()
	return &meta, nil
}

func (cs *contentStore) GetFiles(ctx context.Context, tag string) []domain.FileEntry {
	s := cs.shardFor(tag)

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.files[tag]
	out := make([]domain.FileEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.meta)
	}

	return out
}

func (cs *contentStore) GetFile(ctx context.Context, tag, fileID string) (*domain.FileEntry, bool) {
	s := cs.shardFor(tag)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.files[tag][fileID]
	if !exists {
		return nil, false
	}

	meta := rec.meta
	return &meta, true
}

// OpenFile returns the metadata plus a reader over the stored bytes. The
// reader stays valid after eviction because the byte slice is immutable once
// stored.
func (cs *contentStore) OpenFile(ctx context.Context, tag, fileID string) (domain.FileEntry, io.Reader, error) {
	s := cs.shardFor(tag)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.files[tag][fileID]
	if !exists {
		return domain.FileEntry{}, nil, domain.ErrFileNotFound
	}

	return rec.meta, bytes.NewReader(rec.data), nil
}

func (cs *contentStore) DeleteFile(ctx context.Context, tag, fileID string) {
	s := cs.shardFor(tag)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files[tag], fileID)
	if len(s.files[tag]) == 0 {
		delete(s.files, tag)
	}
}

func (cs *contentStore) DeleteAllFiles(ctx context.Context, tag string) {
	s := cs.shardFor(tag)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files, tag)
}

// Run drives the periodic eviction sweep until ctx is cancelled. Call it in
// its own goroutine.
func (cs *contentStore) Run(ctx context.Context) {
	interval := cs.opts.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cs.Sweep()
		}
	}
}

// Sweep evicts every clipboard and file whose age exceeds its TTL. The age
// is re-checked under each shard's lock so a write that lands between tick
// and lock acquisition keeps its entry alive.
func (cs *contentStore) Sweep() {
	now := cs.now()

	var clipsEvicted, filesEvicted int

	for _, s := range cs.shards {
		s.mu.Lock()

		if cs.opts.ClipboardTTL > 0 {
			for tag, entry := range s.clips {
				if now.Sub(entry.updatedAt) > cs.opts.ClipboardTTL {
					delete(s.clips, tag)
					clipsEvicted++
				}
			}
		}

		if cs.opts.FileTTL > 0 {
			for tag, records := range s.files {
				for fileID, rec := range records {
					if now.Sub(rec.meta.UploadedAt) > cs.opts.FileTTL {
						delete(records, fileID)
						filesEvicted++
					}
				}
				if len(records) == 0 {
					delete(s.files, tag)
				}
			}
		}

		s.mu.Unlock()
	}

	if clipsEvicted > 0 {
		metrics.SweepEvictions.WithLabelValues("clipboard").Add(float64(clipsEvicted))
	}
	if filesEvicted > 0 {
		metrics.SweepEvictions.WithLabelValues("file").Add(float64(filesEvicted))
	}

	if cs.logger != nil && (clipsEvicted > 0 || filesEvicted > 0) {
		cs.logger.Info(logging.ContentStore, logging.Eviction, "sweep complete", map[logging.ExtraKey]any{
			"clipboardsEvicted": clipsEvicted,
			"filesEvicted":      filesEvicted,
		})
	}
}
