// Package config loads the c2h TOML configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/conn-castle/c2-harness/internal/codec2"
)

// Config is the full harness configuration.
type Config struct {
	Device     DeviceConfig   `toml:"device"`
	Service    ServiceConfig  `toml:"service"`
	Registry   RegistryConfig `toml:"registry"`
	VINTF      VINTFConfig    `toml:"vintf"`
	Conf       ConfConfig     `toml:"conf"`
	Client     ClientConfig   `toml:"client"`
	State      StateConfig    `toml:"state"`
	Components codec2.Table   `toml:"components"`
}

// DeviceConfig selects how commands reach the device.
type DeviceConfig struct {
	Transport string `toml:"transport"`
	Serial    string `toml:"serial"`
	ADBPath   string `toml:"adb_path"`
}

// ServiceConfig describes the HAL service binary under test.
type ServiceConfig struct {
	// Executable is the binary name; it is also what pidof matches.
	Executable string `toml:"executable"`
	// Dir holds the executable and is prepended to relative library paths.
	Dir         string   `toml:"dir"`
	LibraryPath []string `toml:"library_path"`
	// InitName is the init service that normally runs the HAL.
	InitName     string   `toml:"init_name"`
	LaunchSettle Duration `toml:"launch_settle"`
	// Log receives the detached service's stdout and stderr.
	Log string `toml:"log"`
}

// RegistryConfig describes the service registry daemon.
type RegistryConfig struct {
	Name          string   `toml:"name"`
	Companions    []string `toml:"companions"`
	RestartSettle Duration `toml:"restart_settle"`
}

// VINTFConfig describes the HAL entry spliced into the vendor interface files.
type VINTFConfig struct {
	Dir               string   `toml:"dir"`
	HALName           string   `toml:"hal_name"`
	Version           string   `toml:"version"`
	Interface         string   `toml:"interface"`
	Instances         []string `toml:"instances"`
	RestoreOnTeardown bool     `toml:"restore_on_teardown"`
}

// ConfConfig lists the store configuration files replaced for the run.
type ConfConfig struct {
	Files []ConfFile `toml:"files"`
}

// ConfFile is a device file that is backed up, optionally overwritten by
// Source, and restored on teardown.
type ConfFile struct {
	Path   string `toml:"path"`
	Source string `toml:"source"`
}

// ClientConfig describes how checks reach the running store.
type ClientConfig struct {
	Instance string `toml:"instance"`
	Probe    string `toml:"probe"`
}

// StateConfig holds host-side state locations.
type StateConfig struct {
	Dir string `toml:"dir"`
}

// Duration is a time.Duration written as a Go duration string ("500ms").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}
