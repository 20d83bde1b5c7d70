package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/c2-harness/internal/device"
	"github.com/conn-castle/c2-harness/internal/device/devicetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "snapshots"))
	require.NoError(t, err)
	return store
}

func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	_, err := NewStore("  ")
	require.Error(t, err)
}

func TestCaptureAndRestore(t *testing.T) {
	ctx := context.Background()
	dev := devicetest.New()
	dev.SetFile("/vendor/etc/mfx_c2_store.conf", "original store")
	dev.RespondPrefix("stat -c %a /vendor/etc/mfx_c2_store.conf", device.Result{Stdout: "644\n"})
	store := newTestStore(t)

	snap, err := store.Capture(ctx, dev, []string{
		"/vendor/etc/mfx_c2_store.conf",
		"/vendor/etc/media_codecs_intel_c2_video.xml",
		"/vendor/etc/mfx_c2_store.conf",
	})
	require.NoError(t, err)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, StatusCreated, snap.Status)
	assert.Equal(t, EntryKindFile, snap.Entries[0].Kind)
	require.NotNil(t, snap.Entries[0].Perm)
	assert.Equal(t, uint32(0o644), *snap.Entries[0].Perm)
	assert.Equal(t, EntryKindAbsent, snap.Entries[1].Kind)
	assert.Equal(t, []string{"/vendor/etc/mfx_c2_store.conf", "/vendor/etc/media_codecs_intel_c2_video.xml"}, snap.Paths())

	dev.SetFile("/vendor/etc/mfx_c2_store.conf", "overlay")
	dev.SetFile("/vendor/etc/media_codecs_intel_c2_video.xml", "overlay xml")

	require.NoError(t, store.Restore(ctx, dev, snap))

	content, ok := dev.File("/vendor/etc/mfx_c2_store.conf")
	require.True(t, ok)
	assert.Equal(t, "original store", content)
	_, ok = dev.File("/vendor/etc/media_codecs_intel_c2_video.xml")
	assert.False(t, ok)
	assert.Contains(t, dev.Scripts(), "chmod 644 /vendor/etc/mfx_c2_store.conf")

	stored, err := store.Load(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRestored, stored.Status)
}

func TestRestoreFailurePersistsStatus(t *testing.T) {
	ctx := context.Background()
	dev := devicetest.New()
	dev.SetFile("/vendor/etc/a.conf", "a")
	store := newTestStore(t)
	snap, err := store.Capture(ctx, dev, []string{"/vendor/etc/a.conf"})
	require.NoError(t, err)

	dev.WriteErr = errors.New("read-only file system")
	err = store.Restore(ctx, dev, snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only file system")

	stored, err := store.Load(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRestoreFailed, stored.Status)
	assert.Contains(t, stored.FailureError, "/vendor/etc/a.conf")
}

func TestListNewestFirstAndLatest(t *testing.T) {
	ctx := context.Background()
	dev := devicetest.New()
	store := newTestStore(t)
	store.now = fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	_, err := store.Latest()
	assert.True(t, errors.Is(err, ErrNoSnapshots))

	first, err := store.Capture(ctx, dev, []string{"/a"})
	require.NoError(t, err)
	second, err := store.Capture(ctx, dev, []string{"/b"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0o644))

	snaps, err := store.List()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, second.ID, snaps[0].ID)
	assert.Equal(t, first.ID, snaps[1].ID)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.True(t, strings.HasPrefix(latest.ID, "20260102-030407-"))
}

func TestCapturePrunesOldSnapshots(t *testing.T) {
	ctx := context.Background()
	dev := devicetest.New()
	store := newTestStore(t)
	store.now = fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	store.retain = 2

	var ids []string
	for i := 0; i < 4; i++ {
		snap, err := store.Capture(ctx, dev, []string{"/a"})
		require.NoError(t, err)
		ids = append(ids, snap.ID)
	}

	snaps, err := store.List()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, ids[3], snaps[0].ID)
	assert.Equal(t, ids[2], snaps[1].ID)
}

func TestPruneZero(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Capture(context.Background(), devicetest.New(), []string{"/a"})
	require.NoError(t, err)
	require.NoError(t, store.Prune(-1))
	snaps, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestListMissingDir(t *testing.T) {
	store := newTestStore(t)
	snaps, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestLoadRejectsBadIDs(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"", "..", "../escape", "a/b"} {
		_, err := store.Load(id)
		require.Error(t, err, id)
		assert.Contains(t, err.Error(), "invalid snapshot id")
	}

	_, err := store.Load("20260101-000000-deadbeef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSaveRejectsInvalidSnapshots(t *testing.T) {
	store := newTestStore(t)
	valid := func() *Snapshot {
		return &Snapshot{
			SchemaVersion: SchemaVersion,
			ID:            "id",
			CreatedAtUTC:  "2026-01-02T03:04:05Z",
			Status:        StatusCreated,
			Entries:       []Entry{{Path: "/a", Kind: EntryKindFile, ContentBase64: "YQ=="}},
		}
	}
	perm := uint32(0o644)
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   string
	}{
		{"schema", func(s *Snapshot) { s.SchemaVersion = 9 }, "schema_version"},
		{"id", func(s *Snapshot) { s.ID = " " }, "snapshot_id"},
		{"time", func(s *Snapshot) { s.CreatedAtUTC = "yesterday" }, "created_at_utc"},
		{"status", func(s *Snapshot) { s.Status = "applied" }, "invalid status"},
		{"kind", func(s *Snapshot) { s.Entries[0].Kind = "dir" }, "invalid entry kind"},
		{"base64", func(s *Snapshot) { s.Entries[0].ContentBase64 = "!!" }, "content_base64"},
		{"absent perm", func(s *Snapshot) { s.Entries[0] = Entry{Path: "/a", Kind: EntryKindAbsent, Perm: &perm} }, "must not carry"},
		{"duplicate", func(s *Snapshot) { s.Entries = append(s.Entries, s.Entries[0]) }, "duplicate entry"},
		{"empty path", func(s *Snapshot) { s.Entries[0].Path = "" }, "path is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := valid()
			tt.mutate(snap)
			err := store.Save(snap)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	require.NoError(t, store.Save(valid()))
}

func TestSnapshotSize(t *testing.T) {
	snap := &Snapshot{Entries: []Entry{
		{Path: "/a", Kind: EntryKindFile, ContentBase64: "aGVsbG8="},
		{Path: "/b", Kind: EntryKindAbsent},
	}}
	assert.Equal(t, 5, snap.Size())
}
