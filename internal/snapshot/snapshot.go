// Package snapshot backs up device files into host-side JSON snapshots and
// restores them.
package snapshot

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conn-castle/c2-harness/internal/device"
	"github.com/conn-castle/c2-harness/internal/fsutil"
	"github.com/conn-castle/c2-harness/internal/messages"
)

const (
	// SchemaVersion is the on-disk snapshot format version.
	SchemaVersion = 1
	// DefaultRetain is how many snapshots Capture keeps.
	DefaultRetain = 20
)

// ErrNoSnapshots is returned by Latest when the store is empty.
var ErrNoSnapshots = errors.New("no snapshots found")

// Status records where a snapshot is in its lifecycle.
type Status string

const (
	StatusCreated       Status = "created"
	StatusRestored      Status = "restored"
	StatusRestoreFailed Status = "restore_failed"
)

// EntryKind says whether the path existed when captured.
type EntryKind string

const (
	EntryKindFile   EntryKind = "file"
	EntryKindAbsent EntryKind = "absent"
)

// Entry is one captured device path.
type Entry struct {
	Path          string    `json:"path"`
	Kind          EntryKind `json:"kind"`
	Perm          *uint32   `json:"perm,omitempty"`
	ContentBase64 string    `json:"content_base64,omitempty"`
}

// Snapshot is a set of device files captured before the harness modifies them.
type Snapshot struct {
	SchemaVersion int     `json:"schema_version"`
	ID            string  `json:"snapshot_id"`
	CreatedAtUTC  string  `json:"created_at_utc"`
	Status        Status  `json:"status"`
	FailureError  string  `json:"failure_error,omitempty"`
	Entries       []Entry `json:"entries"`
}

// Paths returns the captured device paths in capture order.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		paths = append(paths, e.Path)
	}
	return paths
}

// Size returns the total captured content size in bytes.
func (s *Snapshot) Size() int {
	total := 0
	for _, e := range s.Entries {
		data, err := base64.StdEncoding.DecodeString(e.ContentBase64)
		if err == nil {
			total += len(data)
		}
	}
	return total
}

// Store keeps snapshots as <id>.json files in one directory.
type Store struct {
	dir    string
	retain int
	now    func() time.Time
}

// NewStore returns a store rooted at dir. The directory is created on first write.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New(messages.SnapshotDirRequired)
	}
	return &Store{dir: dir, retain: DefaultRetain, now: time.Now}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Capture reads every path from dev and persists the result as a new snapshot.
// Paths missing on the device are recorded as absent so Restore removes them.
func (s *Store) Capture(ctx context.Context, dev device.Device, paths []string) (*Snapshot, error) {
	now := s.now().UTC()
	snap := &Snapshot{
		SchemaVersion: SchemaVersion,
		ID:            newID(now),
		CreatedAtUTC:  now.Format(time.RFC3339Nano),
		Status:        StatusCreated,
		Entries:       make([]Entry, 0, len(paths)),
	}
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		entry, err := captureEntry(ctx, dev, path)
		if err != nil {
			return nil, err
		}
		snap.Entries = append(snap.Entries, entry)
	}
	if err := s.Prune(s.retain - 1); err != nil {
		return nil, err
	}
	if err := s.Save(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func captureEntry(ctx context.Context, dev device.Device, path string) (Entry, error) {
	data, err := dev.ReadFile(ctx, path)
	if errors.Is(err, device.ErrNotFound) {
		return Entry{Path: path, Kind: EntryKindAbsent}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf(messages.SnapshotReadDeviceFmt, path, err)
	}
	return Entry{
		Path:          path,
		Kind:          EntryKindFile,
		Perm:          statPerm(ctx, dev, path),
		ContentBase64: base64.StdEncoding.EncodeToString(data),
	}, nil
}

// statPerm asks the device for the permission bits of path. Nil means unknown;
// restore then leaves whatever mode the file has.
func statPerm(ctx context.Context, dev device.Device, path string) *uint32 {
	res, err := dev.Run(ctx, "stat -c %a "+device.Quote(path))
	if err != nil || !res.OK() {
		return nil
	}
	perm, err := strconv.ParseUint(strings.TrimSpace(res.Stdout), 8, 32)
	if err != nil {
		return nil
	}
	p := uint32(perm)
	return &p
}

// Restore writes every entry of snap back to dev and records the outcome in
// the stored snapshot.
func (s *Store) Restore(ctx context.Context, dev device.Device, snap *Snapshot) error {
	restoreErr := restoreEntries(ctx, dev, snap.Entries)
	if restoreErr != nil {
		snap.Status = StatusRestoreFailed
		snap.FailureError = restoreErr.Error()
		if err := s.Save(snap); err != nil {
			return fmt.Errorf(messages.SnapshotPersistStateFmt, snap.ID, restoreErr, StatusRestoreFailed, err)
		}
		return fmt.Errorf(messages.SnapshotRestoreFailedFmt, snap.ID, restoreErr)
	}
	snap.Status = StatusRestored
	snap.FailureError = ""
	return s.Save(snap)
}

func restoreEntries(ctx context.Context, dev device.Device, entries []Entry) error {
	for _, entry := range entries {
		switch entry.Kind {
		case EntryKindAbsent:
			if err := dev.Remove(ctx, entry.Path); err != nil {
				return fmt.Errorf(messages.SnapshotRestoreEntryFmt, entry.Path, err)
			}
		case EntryKindFile:
			data, err := base64.StdEncoding.DecodeString(entry.ContentBase64)
			if err != nil {
				return fmt.Errorf(messages.SnapshotRestoreEntryFmt, entry.Path, err)
			}
			if err := dev.WriteFile(ctx, entry.Path, data); err != nil {
				return fmt.Errorf(messages.SnapshotRestoreEntryFmt, entry.Path, err)
			}
			if entry.Perm != nil {
				res, err := dev.Run(ctx, fmt.Sprintf("chmod %o %s", *entry.Perm, device.Quote(entry.Path)))
				if err == nil {
					err = res.Err()
				}
				if err != nil {
					return fmt.Errorf(messages.SnapshotRestoreEntryFmt, entry.Path, err)
				}
			}
		}
	}
	return nil
}

// Save validates snap and writes it atomically.
func (s *Store) Save(snap *Snapshot) error {
	if err := validate(snap); err != nil {
		return fmt.Errorf(messages.SnapshotInvalidFmt, snap.ID, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf(messages.SnapshotCreateDirFmt, s.dir, err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf(messages.SnapshotWriteFmt, snap.ID, err)
	}
	data = append(data, '\n')
	path := s.path(snap.ID)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.SnapshotWriteFmt, path, err)
	}
	return nil
}

// Load reads the snapshot with the given id.
func (s *Store) Load(id string) (*Snapshot, error) {
	if strings.TrimSpace(id) == "" || filepath.Base(id) != id || id == "." || id == ".." {
		return nil, fmt.Errorf(messages.SnapshotIDInvalidFmt, id)
	}
	snap, err := readFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(messages.SnapshotNotFoundFmt, id, s.dir)
	}
	return snap, err
}

// Latest returns the newest snapshot.
func (s *Store) Latest() (*Snapshot, error) {
	snaps, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNoSnapshots
	}
	return snaps[0], nil
}

// List returns all readable snapshots, newest first. Malformed files are skipped.
func (s *Store) List() ([]*Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf(messages.SnapshotReadFmt, s.dir, err)
	}
	type listed struct {
		snap      *Snapshot
		createdAt time.Time
	}
	found := make([]listed, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		snap, err := readFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		createdAt, err := time.Parse(time.RFC3339Nano, snap.CreatedAtUTC)
		if err != nil {
			continue
		}
		found = append(found, listed{snap: snap, createdAt: createdAt})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].createdAt.Equal(found[j].createdAt) {
			return found[i].snap.ID > found[j].snap.ID
		}
		return found[i].createdAt.After(found[j].createdAt)
	})
	snaps := make([]*Snapshot, 0, len(found))
	for _, f := range found {
		snaps = append(snaps, f.snap)
	}
	return snaps, nil
}

// Prune deletes the oldest snapshots so at most retain remain.
func (s *Store) Prune(retain int) error {
	if retain < 0 {
		retain = 0
	}
	snaps, err := s.List()
	if err != nil {
		return err
	}
	for _, snap := range snaps[min(retain, len(snaps)):] {
		path := s.path(snap.ID)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf(messages.SnapshotPruneFmt, path, err)
		}
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func newID(now time.Time) string {
	return now.Format("20060102-150405") + "-" + uuid.NewString()[:8]
}

func readFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.SnapshotReadFmt, path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf(messages.SnapshotDecodeFmt, path, err)
	}
	if err := validate(&snap); err != nil {
		return nil, fmt.Errorf(messages.SnapshotInvalidFmt, path, err)
	}
	return &snap, nil
}

func validate(snap *Snapshot) error {
	if snap.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema_version %d", snap.SchemaVersion)
	}
	if strings.TrimSpace(snap.ID) == "" {
		return errors.New("snapshot_id is required")
	}
	if _, err := time.Parse(time.RFC3339Nano, snap.CreatedAtUTC); err != nil {
		return fmt.Errorf("invalid created_at_utc %q: %w", snap.CreatedAtUTC, err)
	}
	switch snap.Status {
	case StatusCreated, StatusRestored, StatusRestoreFailed:
	default:
		return fmt.Errorf("invalid status %q", snap.Status)
	}
	seen := make(map[string]struct{}, len(snap.Entries))
	for _, entry := range snap.Entries {
		if strings.TrimSpace(entry.Path) == "" {
			return errors.New("snapshot entry path is required")
		}
		switch entry.Kind {
		case EntryKindFile:
			if _, err := base64.StdEncoding.DecodeString(entry.ContentBase64); err != nil {
				return fmt.Errorf("file entry %s has invalid content_base64: %w", entry.Path, err)
			}
		case EntryKindAbsent:
			if entry.ContentBase64 != "" || entry.Perm != nil {
				return fmt.Errorf("absent entry %s must not carry content or perm", entry.Path)
			}
		default:
			return fmt.Errorf("invalid entry kind %q", entry.Kind)
		}
		if _, ok := seen[entry.Path]; ok {
			return fmt.Errorf("duplicate entry path %q", entry.Path)
		}
		seen[entry.Path] = struct{}{}
	}
	return nil
}
