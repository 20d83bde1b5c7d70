package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/c2-harness/internal/messages"
)

func newSetupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.SetupUse,
		Short: messages.SetupShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			if err := a.confirmSetUp(); err != nil {
				return err
			}
			return a.withLock(cmd.Context(), func() error {
				if err := a.environment(cmd.OutOrStdout()).SetUp(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), messages.SetupDone)
				return nil
			})
		},
	}
}

func newTeardownCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.TeardownUse,
		Short: messages.TeardownShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			return a.withLock(cmd.Context(), func() error {
				if err := a.environment(cmd.OutOrStdout()).RecoverLatest().TearDown(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), messages.TeardownDone)
				return nil
			})
		},
	}
}
