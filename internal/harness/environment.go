package harness

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/conn-castle/c2-harness/internal/config"
	"github.com/conn-castle/c2-harness/internal/device"
	"github.com/conn-castle/c2-harness/internal/messages"
	"github.com/conn-castle/c2-harness/internal/service"
	"github.com/conn-castle/c2-harness/internal/snapshot"
	"github.com/conn-castle/c2-harness/internal/vintf"
)

// Environment prepares the device for the checks and puts it back afterwards.
type Environment struct {
	cfg     *config.Config
	dev     device.Device
	store   *snapshot.Store
	manager *service.Manager
	out     io.Writer

	snap          *snapshot.Snapshot
	recoverLatest bool
}

// NewEnvironment returns an Environment. Step progress and warnings from
// manager go to out; nil discards them.
func NewEnvironment(cfg *config.Config, dev device.Device, store *snapshot.Store, manager *service.Manager, out io.Writer) *Environment {
	if out == nil {
		out = io.Discard
	}
	e := &Environment{cfg: cfg, dev: dev, store: store, manager: manager, out: out}
	manager.SetWarn(e.warn)
	return e
}

// RecoverLatest makes TearDown, when SetUp took no snapshot in this process,
// restore the newest stored snapshot that has not been restored yet.
func (e *Environment) RecoverLatest() *Environment {
	e.recoverLatest = true
	return e
}

// Snapshot returns the snapshot taken by SetUp, if any.
func (e *Environment) Snapshot() *snapshot.Snapshot {
	return e.snap
}

// Entry returns the HAL entry the vintf files must carry.
func (e *Environment) Entry() vintf.Entry {
	return vintf.Entry{
		HALName:   e.cfg.VINTF.HALName,
		Version:   e.cfg.VINTF.Version,
		Interface: e.cfg.VINTF.Interface,
		Instances: e.cfg.VINTF.Instances,
	}
}

// SnapshotPaths returns the device files SetUp backs up.
func (e *Environment) SnapshotPaths() []string {
	paths := make([]string, 0, len(e.cfg.Conf.Files)+len(vintf.Files))
	for _, file := range e.cfg.Conf.Files {
		paths = append(paths, file.Path)
	}
	if e.cfg.VINTF.RestoreOnTeardown {
		paths = append(paths, vintf.Paths(e.cfg.VINTF.Dir)...)
	}
	return paths
}

// SetUp stops the installed service, swaps in the test configuration, grants
// the HAL in the vintf files, and launches the test binary. Any returned
// error is fatal for the run; TearDown must still be called.
func (e *Environment) SetUp(ctx context.Context) error {
	_, _ = fmt.Fprint(e.out, messages.HarnessStepClearEnv)

	_, _ = fmt.Fprintf(e.out, messages.HarnessStepStopInitFmt, e.cfg.Service.InitName)
	e.warn(e.manager.StopInit(ctx))
	_, _ = fmt.Fprintf(e.out, messages.HarnessStepStopBinaryFmt, e.cfg.Service.Executable)
	e.warn(e.manager.StopBinary(ctx))

	snap, err := e.store.Capture(ctx, e.dev, e.SnapshotPaths())
	if err != nil {
		return fmt.Errorf(messages.HarnessSnapshotFailedFmt, err)
	}
	e.snap = snap
	_, _ = fmt.Fprintf(e.out, messages.HarnessStepSnapshotFmt, snap.ID, len(snap.Entries))

	for _, file := range e.cfg.Conf.Files {
		if file.Source == "" {
			continue
		}
		_, _ = fmt.Fprintf(e.out, messages.HarnessStepOverlayFmt, file.Path, file.Source)
		data, err := e.dev.ReadFile(ctx, file.Source)
		if err != nil {
			return fmt.Errorf(messages.HarnessOverlayFailedFmt, file.Path, err)
		}
		if err := e.dev.WriteFile(ctx, file.Path, data); err != nil {
			return fmt.Errorf(messages.HarnessOverlayFailedFmt, file.Path, err)
		}
	}

	changes, err := vintf.Plan(ctx, e.dev, e.cfg.VINTF.Dir, e.Entry())
	if err != nil {
		return fmt.Errorf(messages.HarnessVINTFFailedFmt, err)
	}
	for _, change := range changes {
		if change.Unanchored {
			_, _ = fmt.Fprintf(e.out, messages.HarnessWarnUnanchoredFmt, change.Path, change.EndTag)
			continue
		}
		state := messages.HarnessVINTFUnchanged
		if change.Changed {
			state = messages.HarnessVINTFUpdated
		}
		_, _ = fmt.Fprintf(e.out, messages.HarnessStepVINTFFmt, change.Path, state)
	}
	updated, err := vintf.Apply(ctx, e.dev, changes)
	if err != nil {
		return fmt.Errorf(messages.HarnessVINTFFailedFmt, err)
	}
	if updated {
		_, _ = fmt.Fprintf(e.out, messages.HarnessStepRestartRegistryFmt, e.cfg.Registry.Name)
		if err := e.manager.RestartRegistry(ctx); err != nil {
			return fmt.Errorf(messages.HarnessRegistryFailedFmt, err)
		}
	}

	_, _ = fmt.Fprintf(e.out, messages.HarnessStepLaunchFmt, e.cfg.Service.Path())
	if err := e.manager.Launch(ctx); err != nil {
		return fmt.Errorf(messages.HarnessLaunchFailedFmt, err)
	}
	return nil
}

// TearDown restores the backed-up files, stops the test binary, and starts
// the installed service again. Every step runs even if an earlier one
// fails; the failures are joined. Without a snapshot from SetUp nothing is
// restored, unless RecoverLatest was set.
func (e *Environment) TearDown(ctx context.Context) error {
	var errs []error

	snap, err := e.restoreTarget()
	if err != nil {
		errs = append(errs, err)
	}
	if snap != nil {
		if err := e.Restore(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	if !e.cfg.VINTF.RestoreOnTeardown {
		_, _ = fmt.Fprint(e.out, messages.HarnessStepKeepVINTF)
	}

	_, _ = fmt.Fprintf(e.out, messages.HarnessStepStopBinaryFmt, e.cfg.Service.Executable)
	e.warn(e.manager.StopBinary(ctx))
	_, _ = fmt.Fprintf(e.out, messages.HarnessStepStartInitFmt, e.cfg.Service.InitName)
	e.warn(e.manager.StartInit(ctx))

	return errors.Join(errs...)
}

// Restore writes snap back to the device. When snap holds vintf files the
// registry is restarted so it rereads them.
func (e *Environment) Restore(ctx context.Context, snap *snapshot.Snapshot) error {
	_, _ = fmt.Fprintf(e.out, messages.HarnessStepRestoreFmt, snap.ID)
	if err := e.store.Restore(ctx, e.dev, snap); err != nil {
		return fmt.Errorf(messages.HarnessRestoreFailedFmt, err)
	}
	if !restoresVINTF(snap, e.cfg.VINTF.Dir) {
		return nil
	}
	_, _ = fmt.Fprintf(e.out, messages.HarnessStepRestartRegistryFmt, e.cfg.Registry.Name)
	if err := e.manager.RestartRegistry(ctx); err != nil {
		return fmt.Errorf(messages.HarnessRegistryFailedFmt, err)
	}
	return nil
}

// restoreTarget picks the snapshot TearDown restores, or nil.
func (e *Environment) restoreTarget() (*snapshot.Snapshot, error) {
	if e.snap != nil {
		return e.snap, nil
	}
	if !e.recoverLatest {
		_, _ = fmt.Fprint(e.out, messages.HarnessStepNoSnapshot)
		return nil, nil
	}
	latest, err := e.store.Latest()
	if err != nil {
		return nil, fmt.Errorf(messages.HarnessNoSnapshotFmt, err)
	}
	if latest.Status != snapshot.StatusCreated {
		_, _ = fmt.Fprintf(e.out, messages.HarnessStepSnapshotSettledFmt, latest.ID, latest.Status)
		return nil, nil
	}
	return latest, nil
}

func restoresVINTF(snap *snapshot.Snapshot, dir string) bool {
	vintfPaths := make(map[string]struct{})
	for _, p := range vintf.Paths(dir) {
		vintfPaths[p] = struct{}{}
	}
	for _, p := range snap.Paths() {
		if _, ok := vintfPaths[p]; ok {
			return true
		}
	}
	return false
}

func (e *Environment) warn(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(e.out, messages.HarnessWarnIgnoredFmt, err)
	}
}
