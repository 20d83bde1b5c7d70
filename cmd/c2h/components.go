package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/c2-harness/internal/config"
	"github.com/conn-castle/c2-harness/internal/messages"
)

func newComponentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ComponentsUse,
		Short: messages.ComponentsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, messages.ComponentsHeaderFmt, messages.ComponentsHeaderCol, messages.ComponentsStatusCol)
			for _, c := range cfg.Components {
				_, _ = fmt.Fprintf(out, messages.ComponentsHeaderFmt, c.Name, c.Status)
			}
			return nil
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ConfigUse,
		Short: messages.ConfigShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			data, err := config.Encode(cfg)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.ConfigSourceFmt, source)
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
