package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/conn-castle/c2-harness/internal/messages"
)

// ADB runs commands on an attached device through "adb shell -T".
// The shell protocol carries the remote exit status back to the host, and
// -T disables the pty so file contents pass through unmodified.
type ADB struct {
	path   string
	serial string
}

// NewADB returns an ADB device. An empty adbPath means "adb" from PATH; an
// empty serial lets adb pick the only attached device.
func NewADB(adbPath string, serial string) *ADB {
	if adbPath == "" {
		adbPath = "adb"
	}
	return &ADB{path: adbPath, serial: serial}
}

func (a *ADB) args(script string) []string {
	var args []string
	if a.serial != "" {
		args = append(args, "-s", a.serial)
	}
	return append(args, "shell", "-T", script)
}

// Run executes script in the device shell.
func (a *ADB) Run(ctx context.Context, script string) (Result, error) {
	return a.run(ctx, script, nil)
}

// run executes script with stdin forwarded to the device shell.
func (a *ADB) run(ctx context.Context, script string, stdin io.Reader) (Result, error) {
	cmd := execCommandContext(ctx, a.path, a.args(script)...)
	cmd.Stdin = stdin
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

// ReadFile cats path on the device.
func (a *ADB) ReadFile(ctx context.Context, path string) ([]byte, error) {
	q := Quote(path)
	script := fmt.Sprintf("if [ -e %s ]; then cat %s; else exit %d; fi", q, q, missingFileExit)
	res, err := a.Run(ctx, script)
	if err != nil {
		return nil, fmt.Errorf(messages.DeviceReadFailedFmt, path, err)
	}
	if res.ExitCode == missingFileExit {
		return nil, fmt.Errorf(messages.DeviceNotFoundFmt, path, ErrNotFound)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf(messages.DeviceReadFailedFmt, path, err)
	}
	return []byte(res.Stdout), nil
}

// WriteFile streams data as base64 on stdin through "base64 -d" into path,
// so the command line stays short whatever the file size. Redirecting into
// the existing file keeps its owner, mode and SELinux label, which "adb push"
// would not.
func (a *ADB) WriteFile(ctx context.Context, path string, data []byte) error {
	encoded := strings.NewReader(base64.StdEncoding.EncodeToString(data))
	res, err := a.run(ctx, "base64 -d > "+Quote(path), encoded)
	if err != nil {
		return fmt.Errorf(messages.DeviceWriteFailedFmt, path, err)
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf(messages.DeviceWriteFailedFmt, path, err)
	}
	return nil
}

// Remove deletes path on the device.
func (a *ADB) Remove(ctx context.Context, path string) error {
	res, err := a.Run(ctx, "rm -f -- "+Quote(path))
	if err != nil {
		return fmt.Errorf(messages.DeviceRemoveFailedFmt, path, err)
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf(messages.DeviceRemoveFailedFmt, path, err)
	}
	return nil
}
