package config

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/c2-harness/internal/messages"
)

// Paths holds resolved host-side state locations.
type Paths struct {
	StateDir    string
	SnapshotDir string
	LockPath    string
}

// ResolvePaths expands state.dir ("~" is the user's home) into concrete paths.
func (c *Config) ResolvePaths() (Paths, error) {
	dir, err := homedir.Expand(c.State.Dir)
	if err != nil {
		return Paths{}, fmt.Errorf(messages.ConfigStateDirFmt, c.State.Dir, err)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return Paths{}, fmt.Errorf(messages.ConfigStateDirFmt, c.State.Dir, err)
	}
	return Paths{
		StateDir:    dir,
		SnapshotDir: filepath.Join(dir, "snapshots"),
		LockPath:    filepath.Join(dir, "device.lock"),
	}, nil
}

// Path returns the device path of the service executable.
func (s ServiceConfig) Path() string {
	return joinDevicePath(s.Dir, s.Executable)
}

// joinDevicePath joins with "/" regardless of host OS and keeps a leading
// "./" so the shell does not search PATH for relative executables.
func joinDevicePath(dir string, name string) string {
	if dir == "" {
		return name
	}
	if dir[len(dir)-1] == '/' {
		return dir + name
	}
	return dir + "/" + name
}
