// Package service drives the lifecycle of the HAL service under test: the
// installed init service, the test binary, and the registry daemon.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conn-castle/c2-harness/internal/config"
	"github.com/conn-castle/c2-harness/internal/device"
	"github.com/conn-castle/c2-harness/internal/messages"
)

// ErrLaunchFailed reports that the launch command exited non-zero.
var ErrLaunchFailed = errors.New("service launch failed")

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the context-aware wait used between lifecycle steps.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Manager issues lifecycle commands against one device.
type Manager struct {
	dev      device.Device
	service  config.ServiceConfig
	registry config.RegistryConfig
	sleep    SleepFunc
	warn     func(error)
}

// New returns a Manager. A nil sleep uses Sleep.
func New(dev device.Device, svc config.ServiceConfig, reg config.RegistryConfig, sleep SleepFunc) *Manager {
	if sleep == nil {
		sleep = Sleep
	}
	return &Manager{dev: dev, service: svc, registry: reg, sleep: sleep}
}

// SetWarn sets the receiver of non-fatal command failures. Nil drops them.
func (m *Manager) SetWarn(fn func(error)) {
	m.warn = fn
}

// StopInit stops the installed service through init. The exit status is
// ignored; the service may not be running.
func (m *Manager) StopInit(ctx context.Context) error {
	if _, err := m.dev.Run(ctx, "stop "+device.Quote(m.service.InitName)); err != nil {
		return fmt.Errorf(messages.ServiceStopInitFailedFmt, m.service.InitName, err)
	}
	return nil
}

// StartInit starts the installed service through init. The exit status is ignored.
func (m *Manager) StartInit(ctx context.Context) error {
	if _, err := m.dev.Run(ctx, "start "+device.Quote(m.service.InitName)); err != nil {
		return fmt.Errorf(messages.ServiceStartInitFailedFmt, m.service.InitName, err)
	}
	return nil
}

// StopBinary sends SIGINT to every process running the service executable.
// The exit status is ignored; no process may match.
func (m *Manager) StopBinary(ctx context.Context) error {
	if _, err := m.dev.Run(ctx, KillScript(m.service.Executable)); err != nil {
		return fmt.Errorf(messages.ServiceKillFailedFmt, m.service.Executable, err)
	}
	return nil
}

// Launch starts the test binary detached from the shell and waits the
// launch settle time. A non-zero exit status wraps ErrLaunchFailed.
func (m *Manager) Launch(ctx context.Context) error {
	script, err := LaunchScript(m.service)
	if err != nil {
		return fmt.Errorf(messages.ServiceLaunchFailedFmt, m.service.Executable, err)
	}
	res, err := m.dev.Run(ctx, script)
	if err != nil {
		return fmt.Errorf(messages.ServiceLaunchFailedFmt, m.service.Executable, err)
	}
	if !res.OK() {
		detail := fmt.Errorf(messages.ServiceLaunchExitFmt, res.ExitCode, strings.TrimSpace(res.Stderr))
		return fmt.Errorf(messages.ServiceLaunchFailedFmt, m.service.Executable, errors.Join(ErrLaunchFailed, detail))
	}
	return m.sleep(ctx, m.service.LaunchSettle.Std())
}

// RestartRegistry restarts the registry daemon and then each companion
// service, waiting the settle time after each. A non-zero exit status is
// passed to the warn hook; a companion may not exist on every device.
func (m *Manager) RestartRegistry(ctx context.Context) error {
	names := append([]string{m.registry.Name}, m.registry.Companions...)
	for _, name := range names {
		res, err := m.dev.Run(ctx, RestartScript(name))
		if err != nil {
			return fmt.Errorf(messages.ServiceRestartFailedFmt, name, err)
		}
		if err := res.Err(); err != nil && m.warn != nil {
			m.warn(fmt.Errorf(messages.ServiceRestartExitFmt, name, err))
		}
		if err := m.sleep(ctx, m.registry.RestartSettle.Std()); err != nil {
			return err
		}
	}
	return nil
}

// KillScript returns the shell command that interrupts executable.
func KillScript(executable string) string {
	return "kill -INT $(pidof " + device.Quote(executable) + ")"
}

// RestartScript returns the init stop/start pair for name.
func RestartScript(name string) string {
	q := device.Quote(name)
	return "stop " + q + "; start " + q
}

// LaunchScript returns the background launch command for svc. Output goes
// to svc.Log so the detached process never holds the shell's pipes.
func LaunchScript(svc config.ServiceConfig) (string, error) {
	if len(svc.LibraryPath) == 0 {
		return "", errors.New(messages.ServiceLibraryPathEmpty)
	}
	log := svc.Log
	if strings.TrimSpace(log) == "" {
		log = "/dev/null"
	}
	return fmt.Sprintf("LD_LIBRARY_PATH=%s %s >%s 2>&1 &",
		device.Quote(strings.Join(svc.LibraryPath, ":")),
		device.Quote(svc.Path()),
		device.Quote(log),
	), nil
}
