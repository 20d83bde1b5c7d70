package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conn-castle/c2-harness/internal/harness"
	"github.com/conn-castle/c2-harness/internal/messages"
	"github.com/conn-castle/c2-harness/internal/report"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var reportPath, metricsPath, filter string

	cmd := &cobra.Command{
		Use:   messages.RunUse,
		Short: messages.RunShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			connector, err := newConnector(a.dev, a.cfg.Client.Probe)
			if err != nil {
				return err
			}
			suite := &harness.Suite{
				Connector:  connector,
				Instance:   a.cfg.Client.Instance,
				Components: a.cfg.Components,
			}
			checks, err := harness.SelectChecks(suite.Checks(), filter)
			if err != nil {
				return err
			}
			if err := a.confirmSetUp(); err != nil {
				return err
			}

			return a.withLock(cmd.Context(), func() error {
				p := newPrinter(out)
				env := a.environment(out)
				start := time.Now()
				p.banner(len(checks))
				summary := harness.Run(cmd.Context(), &announcedPhases{Environment: env, p: p}, checks, p)
				p.summary(summary, time.Since(start))

				if summary.SetUpErr != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), messages.RunSetUpHintFmt, summary.SetUpErr)
				}
				if summary.TearDownErr != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), messages.TearDownErrFmt, summary.TearDownErr)
				}
				if reportPath != "" {
					if err := report.WriteFile(reportPath, summary); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(out, messages.RunReportFmt, reportPath)
				}
				if metricsPath != "" {
					if err := report.WriteMetrics(metricsPath, summary); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(out, messages.RunMetricsFmt, metricsPath)
				}
				if !summary.Passed() || summary.TearDownErr != nil {
					return &SilentExitError{Code: 1}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", messages.RunFlagReport)
	cmd.Flags().StringVar(&metricsPath, "metrics", "", messages.RunFlagMetrics)
	cmd.Flags().StringVar(&filter, "filter", "", messages.RunFlagFilter)
	return cmd
}

// announcedPhases prints the tear-down banner before tearing down.
type announcedPhases struct {
	*harness.Environment
	p *printer
}

func (a *announcedPhases) TearDown(ctx context.Context) error {
	a.p.tearDown()
	return a.Environment.TearDown(ctx)
}
