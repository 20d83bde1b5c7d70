// Package device runs shell commands and edits files on the device under test.
//
// Two transports are provided: Local, for a harness that runs on the device
// itself, and ADB, for a harness that drives an attached device from a host.
package device

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/conn-castle/c2-harness/internal/messages"
)

// ErrNotFound reports that a device file does not exist.
var ErrNotFound = errors.New("file not found")

// Transport names accepted by New.
const (
	TransportLocal = "local"
	TransportADB   = "adb"
)

// missingFileExit is the exit status scripts use to signal an absent file.
const missingFileExit = 3

// Device abstracts the shell surface of the device under test.
type Device interface {
	// Run executes script with the device shell. A non-zero exit status is
	// reported through Result, not as an error.
	Run(ctx context.Context, script string) (Result, error)
	// ReadFile returns the contents of path, or an error wrapping ErrNotFound.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// WriteFile replaces the contents of path in place, keeping its mode and owner.
	WriteFile(ctx context.Context, path string, data []byte) error
	// Remove deletes path. Removing an absent file is not an error.
	Remove(ctx context.Context, path string) error
}

// Result holds the outcome of a shell command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// OK reports whether the command exited successfully.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Err returns an error describing a failed command, or nil.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf(messages.DeviceCommandExitFmt, r.ExitCode, strings.TrimSpace(r.Stderr))
}

// Options selects and parameterizes a transport.
type Options struct {
	Transport string
	Serial    string
	ADBPath   string
}

// New returns the Device for opts.Transport.
func New(opts Options) (Device, error) {
	switch strings.TrimSpace(opts.Transport) {
	case "", TransportLocal:
		return NewLocal(), nil
	case TransportADB:
		return NewADB(opts.ADBPath, opts.Serial), nil
	default:
		return nil, fmt.Errorf(messages.DeviceTransportInvalidFmt, opts.Transport)
	}
}

// Quote escapes args for the device shell and joins them with spaces.
func Quote(args ...string) string {
	return shellquote.Join(args...)
}
