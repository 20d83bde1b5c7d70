package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/conn-castle/c2-harness/internal/messages"
)

var execCommandContext = exec.CommandContext

// unsetEnv lists variables the harness's own environment must not leak into
// processes it starts; the service launch sets its own library path.
var unsetEnv = []string{"LD_LIBRARY_PATH"}

// Local runs commands with /system/bin/sh (or sh from PATH) on this machine.
type Local struct {
	shell string
}

// NewLocal returns a Local device using the platform shell.
func NewLocal() *Local {
	shell := "/system/bin/sh"
	if _, err := os.Stat(shell); err != nil {
		shell = "sh"
	}
	return &Local{shell: shell}
}

// Run executes script with "sh -c".
func (l *Local) Run(ctx context.Context, script string) (Result, error) {
	cmd := execCommandContext(ctx, l.shell, "-c", script)
	cmd.Env = childEnv(os.Environ())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf(messages.DeviceRunFailedFmt, script, err)
	}
	return res, nil
}

// ReadFile reads path from the local filesystem.
func (l *Local) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(messages.DeviceNotFoundFmt, path, ErrNotFound)
	}
	return data, err
}

// WriteFile truncates and rewrites path so the inode, mode and security
// label stay as they were. New files are created 0644.
func (l *Local) WriteFile(_ context.Context, path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Remove deletes path.
func (l *Local) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// childEnv returns environ without the variables in unsetEnv.
func childEnv(environ []string) []string {
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		drop := false
		for _, key := range unsetEnv {
			if strings.HasPrefix(kv, key+"=") {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, kv)
		}
	}
	return out
}
