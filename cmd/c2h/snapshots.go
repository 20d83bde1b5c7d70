package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/conn-castle/c2-harness/internal/messages"
	"github.com/conn-castle/c2-harness/internal/snapshot"
)

var now = time.Now

func newSnapshotsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.SnapshotsUse,
		Short: messages.SnapshotsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			snaps, err := a.store.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				_, _ = fmt.Fprintf(out, messages.SnapshotsNoneFmt, a.store.Dir())
				return nil
			}
			for _, snap := range snaps {
				age := snap.CreatedAtUTC
				if created, err := time.Parse(time.RFC3339Nano, snap.CreatedAtUTC); err == nil {
					age = humanize.RelTime(created, now(), "ago", "from now")
				}
				_, _ = fmt.Fprintf(out, messages.SnapshotsLineFmt, snap.ID, snap.Status, age, len(snap.Entries), humanize.Bytes(uint64(snap.Size())))
			}
			return nil
		},
	}
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.RestoreUse,
		Short: messages.RestoreShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			var snap *snapshot.Snapshot
			if len(args) == 1 {
				snap, err = a.store.Load(args[0])
			} else {
				snap, err = a.store.Latest()
			}
			if err != nil {
				return err
			}
			if err := a.confirm(fmt.Sprintf(messages.ConfirmRestoreFmt, len(snap.Entries), snap.ID), ""); err != nil {
				return err
			}
			return a.withLock(cmd.Context(), func() error {
				if err := a.environment(cmd.OutOrStdout()).Restore(cmd.Context(), snap); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.RestoreDoneFmt, snap.ID, len(snap.Entries))
				return nil
			})
		},
	}
}

func newStopCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.StopUse,
		Short: messages.StopShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			if err := a.manager.StopBinary(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.StopDoneFmt, a.cfg.Service.Executable)
			return nil
		},
	}
}
