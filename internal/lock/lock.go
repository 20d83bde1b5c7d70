// Package lock serializes harness runs that mutate the same device.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/c2-harness/internal/messages"
)

// ErrBusy is returned when the lock is still held after the wait timeout.
var ErrBusy = errors.New("lock busy")

var flockFn = unix.Flock

var (
	// WaitTimeout bounds how long Acquire polls a held lock.
	WaitTimeout = 30 * time.Second
	pollEvery   = 100 * time.Millisecond
)

// Lock is an exclusive advisory flock on a host file.
type Lock struct {
	file *os.File
}

// Acquire opens or creates path and takes an exclusive lock on it, polling
// until WaitTimeout or ctx is done. The holder's pid is written into the file.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf(messages.LockCreateDirFmt, filepath.Dir(path), err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.LockOpenFmt, path, err)
	}
	if err := lockFile(ctx, file); err != nil {
		_ = file.Close()
		if errors.Is(err, ErrBusy) {
			return nil, fmt.Errorf(messages.LockBusyFmt+": %w", path, WaitTimeout, err)
		}
		return nil, fmt.Errorf(messages.LockAcquireFmt, path, err)
	}
	if err := file.Truncate(0); err == nil {
		_, _ = file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Lock{file: file}, nil
}

// Release unlocks and closes the lock file. It is safe to call on nil.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	if err := flockFn(int(file.Fd()), unix.LOCK_UN); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func lockFile(ctx context.Context, file *os.File) error {
	deadline := time.Now().Add(WaitTimeout)
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()
	for {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			return err
		}
		if time.Now().After(deadline) {
			return ErrBusy
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
