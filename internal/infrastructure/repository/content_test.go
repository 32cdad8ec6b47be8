package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(opts Options) *contentStore {
	return NewContentStore(opts, nil)
}

func TestContentStore_ClipboardRoundTrip(t *testing.T) {
	store := newTestStore(Options{ClipboardTTL: 15 * time.Minute})
	ctx := context.Background()

	_, exists := store.GetClipboard(ctx, "AB12")
	assert.False(t, exists, "fresh tag should have no clipboard")

	clip, err := store.SetClipboard(ctx, "AB12", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", clip.Content)
	require.NotNil(t, clip.ExpiresAt)
	assert.WithinDuration(t, clip.UpdatedAt.Add(15*time.Minute), *clip.ExpiresAt, time.Second)

	got, exists := store.GetClipboard(ctx, "AB12")
	require.True(t, exists)
	assert.Equal(t, "hello", got.Content)
}

func TestContentStore_ClipboardOverwriteWins(t *testing.T) {
	store := newTestStore(Options{})
	ctx := context.Background()

	_, err := store.SetClipboard(ctx, "AB12", "first")
	require.NoError(t, err)
	_, err = store.SetClipboard(ctx, "AB12", "second")
	require.NoError(t, err)

	got, exists := store.GetClipboard(ctx, "AB12")
	require.True(t, exists)
	assert.Equal(t, "second", got.Content)
}

func TestContentStore_ClipboardTooLong(t *testing.T) {
	store := newTestStore(Options{MaxClipboardChars: 10})
	ctx := context.Background()

	_, err := store.SetClipboard(ctx, "AB12", "this is far too long for the limit")
	assert.ErrorIs(t, err, domain.ErrContentTooLong)

	_, exists := store.GetClipboard(ctx, "AB12")
	assert.False(t, exists, "rejected write must leave no partial state")
}

func TestContentStore_CrossTagIsolation(t *testing.T) {
	store := newTestStore(Options{})
	ctx := context.Background()

	_, err := store.SetClipboard(ctx, "AAAA", "alpha")
	require.NoError(t, err)
	_, err = store.SetClipboard(ctx, "BBBB", "beta")
	require.NoError(t, err)

	store.DeleteClipboard(ctx, "AAAA")

	_, exists := store.GetClipboard(ctx, "AAAA")
	assert.False(t, exists)

	got, exists := store.GetClipboard(ctx, "BBBB")
	require.True(t, exists)
	assert.Equal(t, "beta", got.Content)
}

func TestContentStore_DeleteClipboardIdempotent(t *testing.T) {
	store := newTestStore(Options{})
	ctx := context.Background()

	store.DeleteClipboard(ctx, "AB12")
	store.DeleteClipboard(ctx, "AB12")

	_, exists := store.GetClipboard(ctx, "AB12")
	assert.False(t, exists)
}

func TestContentStore_FileLifecycle(t *testing.T) {
	store := newTestStore(Options{FileTTL: 10 * time.Minute})
	ctx := context.Background()

	entry, err := store.StoreFile(ctx, "AB12", "notes.txt", "text/plain", []byte("contents"))
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, int64(8), entry.Size)

	other, err := store.StoreFile(ctx, "AB12", "other.txt", "text/plain", []byte("more"))
	require.NoError(t, err)

	list := store.GetFiles(ctx, "AB12")
	assert.Len(t, list, 2)

	meta, reader, err := store.OpenFile(ctx, "AB12", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", meta.OriginalName)

	buf := make([]byte, meta.Size)
	n, _ := reader.Read(buf)
	assert.Equal(t, "contents", string(buf[:n]))

	store.DeleteFile(ctx, "AB12", entry.ID)

	_, exists := store.GetFile(ctx, "AB12", entry.ID)
	assert.False(t, exists, "deleted file must be gone")

	_, exists = store.GetFile(ctx, "AB12", other.ID)
	assert.True(t, exists, "deleting one file must not touch its siblings")
}

func TestContentStore_FileRejections(t *testing.T) {
	store := newTestStore(Options{MaxFileBytes: 4})
	ctx := context.Background()

	_, err := store.StoreFile(ctx, "AB12", "big.bin", "application/octet-stream", []byte("too large"))
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	_, err = store.StoreFile(ctx, "AB12", "empty.bin", "application/octet-stream", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyFile)

	assert.Empty(t, store.GetFiles(ctx, "AB12"))
}

func TestContentStore_SweepEvictsExpired(t *testing.T) {
	store := newTestStore(Options{
		ClipboardTTL: 15 * time.Minute,
		FileTTL:      10 * time.Minute,
	})
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	_, err := store.SetClipboard(ctx, "AB12", "old")
	require.NoError(t, err)
	_, err = store.StoreFile(ctx, "AB12", "old.txt", "text/plain", []byte("x"))
	require.NoError(t, err)

	// Clipboard is younger than its TTL, file is past its own.
	store.now = func() time.Time { return base.Add(12 * time.Minute) }
	store.Sweep()

	_, exists := store.GetClipboard(ctx, "AB12")
	assert.True(t, exists, "clipboard within TTL must survive")
	assert.Empty(t, store.GetFiles(ctx, "AB12"), "file past TTL must be evicted")

	store.now = func() time.Time { return base.Add(20 * time.Minute) }
	store.Sweep()

	_, exists = store.GetClipboard(ctx, "AB12")
	assert.False(t, exists, "clipboard past TTL must be evicted")
}

func TestContentStore_SweepSparesRevivedEntries(t *testing.T) {
	store := newTestStore(Options{ClipboardTTL: 15 * time.Minute})
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	_, err := store.SetClipboard(ctx, "AB12", "old")
	require.NoError(t, err)

	// A write after the original entry aged out resets its clock; the next
	// sweep must honor the newer timestamp.
	store.now = func() time.Time { return base.Add(20 * time.Minute) }
	_, err = store.SetClipboard(ctx, "AB12", "fresh")
	require.NoError(t, err)

	store.Sweep()

	got, exists := store.GetClipboard(ctx, "AB12")
	require.True(t, exists)
	assert.Equal(t, "fresh", got.Content)
}

func TestContentStore_ZeroTTLNeverExpires(t *testing.T) {
	store := newTestStore(Options{})
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	_, err := store.SetClipboard(ctx, "AB12", "keep")
	require.NoError(t, err)

	clip, _ := store.GetClipboard(ctx, "AB12")
	assert.Nil(t, clip.ExpiresAt)

	store.now = func() time.Time { return base.Add(24 * time.Hour) }
	store.Sweep()

	_, exists := store.GetClipboard(ctx, "AB12")
	assert.True(t, exists)
}
