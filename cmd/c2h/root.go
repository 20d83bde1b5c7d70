package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/c2-harness/internal/codec2"
	"github.com/conn-castle/c2-harness/internal/config"
	"github.com/conn-castle/c2-harness/internal/device"
	"github.com/conn-castle/c2-harness/internal/harness"
	"github.com/conn-castle/c2-harness/internal/lock"
	"github.com/conn-castle/c2-harness/internal/messages"
	"github.com/conn-castle/c2-harness/internal/service"
	"github.com/conn-castle/c2-harness/internal/snapshot"
	"github.com/conn-castle/c2-harness/internal/terminal"
)

const (
	flagConfig     = "config"
	flagQuiet      = "quiet"
	flagQuietShort = "q"
	flagYes        = "yes"
	flagYesShort   = "y"
)

var (
	newDevice     = device.New
	isInteractive = terminal.IsInteractive
	sleepFunc     service.SleepFunc
	confirmFunc   = confirmWithHuh
	newConnector  = func(dev device.Device, probe string) (codec2.Connector, error) {
		return codec2.NewProbe(dev, probe)
	}
)

type rootOptions struct {
	configPath string
	quiet      bool
	yes        bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !terminal.IsTerminalWriter(cmd.OutOrStdout()) {
				color.NoColor = true
			}
		},
	}
	cmd.Flags().Bool("version", false, messages.RootVersionFlag)
	cmd.PersistentFlags().StringVar(&opts.configPath, flagConfig, "", messages.FlagConfig)
	cmd.PersistentFlags().BoolVarP(&opts.quiet, flagQuiet, flagQuietShort, false, messages.FlagQuiet)
	cmd.PersistentFlags().BoolVarP(&opts.yes, flagYes, flagYesShort, false, messages.FlagYes)

	cmd.AddCommand(
		newRunCmd(opts),
		newSetupCmd(opts),
		newTeardownCmd(opts),
		newDiffCmd(opts),
		newComponentsCmd(opts),
		newSnapshotsCmd(opts),
		newRestoreCmd(opts),
		newStopCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// app holds everything a command needs to act on the device.
type app struct {
	cfg     *config.Config
	source  string
	paths   config.Paths
	dev     device.Device
	store   *snapshot.Store
	manager *service.Manager
	quiet   bool
	yes     bool
}

func loadApp(opts *rootOptions) (*app, error) {
	cfg, source, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, err
	}
	dev, err := newDevice(device.Options{
		Transport: cfg.Device.Transport,
		Serial:    cfg.Device.Serial,
		ADBPath:   cfg.Device.ADBPath,
	})
	if err != nil {
		return nil, err
	}
	store, err := snapshot.NewStore(paths.SnapshotDir)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		source:  source,
		paths:   paths,
		dev:     dev,
		store:   store,
		manager: service.New(dev, cfg.Service, cfg.Registry, sleepFunc),
		quiet:   opts.quiet,
		yes:     opts.yes,
	}, nil
}

// stepWriter returns where environment steps are logged.
func (a *app) stepWriter(out io.Writer) io.Writer {
	if a.quiet {
		return io.Discard
	}
	return out
}

func (a *app) environment(out io.Writer) *harness.Environment {
	return harness.NewEnvironment(a.cfg, a.dev, a.store, a.manager, a.stepWriter(out))
}

// withLock runs fn while holding the host-side device lock.
func (a *app) withLock(ctx context.Context, fn func() error) error {
	l, err := lock.Acquire(ctx, a.paths.LockPath)
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()
	return fn()
}

// confirm asks before device files change. It is skipped with --yes and
// when no one is at the terminal.
func (a *app) confirm(title string, description string) error {
	if a.yes || !isInteractive() {
		return nil
	}
	ok, err := confirmFunc(title, description)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(messages.ConfirmDeclined)
	}
	return nil
}

func (a *app) confirmSetUp() error {
	return a.confirm(
		fmt.Sprintf(messages.ConfirmTitleFmt, a.cfg.Device.Transport),
		fmt.Sprintf(messages.ConfirmDescFmt, len(a.cfg.Conf.Files), a.cfg.VINTF.Dir, a.paths.SnapshotDir),
	)
}

func confirmWithHuh(title string, description string) (bool, error) {
	value := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&value),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return value, err
}
