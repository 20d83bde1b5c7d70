package vintf

import (
	"context"
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/conn-castle/c2-harness/internal/device"
	"github.com/conn-castle/c2-harness/internal/messages"
)

// DefaultDiffMaxLines is the default maximum number of diff lines shown per file.
const DefaultDiffMaxLines = 60

// Change is the planned edit of one file.
type Change struct {
	Path    string
	Before  string
	After   string
	Changed bool
	// EndTag is the root end tag the entry is anchored on. Unanchored is set
	// when the file does not contain it and was left unchanged.
	EndTag     string
	Unanchored bool
}

// Paths returns the device paths of Files under dir.
func Paths(dir string) []string {
	out := make([]string, 0, len(Files))
	for _, file := range Files {
		out = append(out, path(dir, file))
	}
	return out
}

func path(dir string, file File) string {
	return strings.TrimRight(dir, "/") + "/" + file.Stem + ".xml"
}

// Plan reads every file under dir and computes its patch without writing.
// A missing file is an error: the grant cannot be made without it.
func Plan(ctx context.Context, dev device.Device, dir string, entry Entry) ([]Change, error) {
	changes := make([]Change, 0, len(Files))
	for _, file := range Files {
		p := path(dir, file)
		data, err := dev.ReadFile(ctx, p)
		if err != nil {
			return nil, fmt.Errorf(messages.VINTFReadFailedFmt, p, err)
		}
		before := string(data)
		after, changed := PatchContent(before, file, entry)
		changes = append(changes, Change{
			Path:       p,
			Before:     before,
			After:      after,
			Changed:    changed,
			EndTag:     EndTag(file.Stem),
			Unanchored: !HasEndTag(before, file),
		})
	}
	return changes, nil
}

// Apply writes the changed files and reports whether any were written.
func Apply(ctx context.Context, dev device.Device, changes []Change) (bool, error) {
	updated := false
	for _, change := range changes {
		if !change.Changed {
			continue
		}
		if err := dev.WriteFile(ctx, change.Path, []byte(change.After)); err != nil {
			return updated, fmt.Errorf(messages.VINTFWriteFailedFmt, change.Path, err)
		}
		updated = true
	}
	return updated, nil
}

// Diff renders change as a unified diff capped at maxLines lines, and
// reports whether it was truncated. Unchanged files render as "".
func Diff(change Change, maxLines int) (string, bool) {
	if !change.Changed {
		return "", false
	}
	if maxLines <= 0 {
		maxLines = DefaultDiffMaxLines
	}
	diff := udiff.Unified(change.Path+" (current)", change.Path+" (patched)", change.Before, change.After)
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n") + "\n", false
	}
	lines = append(lines[:maxLines:maxLines], fmt.Sprintf(messages.VINTFDiffTruncFmt, maxLines))
	return strings.Join(lines, "\n") + "\n", true
}
