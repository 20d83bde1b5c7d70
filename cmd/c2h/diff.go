package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/c2-harness/internal/messages"
	"github.com/conn-castle/c2-harness/internal/vintf"
)

func newDiffCmd(opts *rootOptions) *cobra.Command {
	var maxLines int

	cmd := &cobra.Command{
		Use:   messages.DiffUse,
		Short: messages.DiffShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			entry := a.environment(io.Discard).Entry()
			changes, err := vintf.Plan(cmd.Context(), a.dev, a.cfg.VINTF.Dir, entry)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, change := range changes {
				if change.Unanchored {
					_, _ = fmt.Fprintf(out, messages.DiffUnanchoredFmt, change.Path, change.EndTag)
					continue
				}
				if !change.Changed {
					_, _ = fmt.Fprintf(out, messages.DiffNoneFmt, change.Path, entry.HALName)
					continue
				}
				text, _ := vintf.Diff(change, maxLines)
				printDiff(out, text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxLines, "diff-lines", vintf.DefaultDiffMaxLines, messages.DiffFlagLines)
	return cmd
}

func printDiff(out io.Writer, text string) {
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			_, _ = fmt.Fprint(out, color.New(color.Bold).Sprint(line))
		case strings.HasPrefix(line, "+"):
			_, _ = fmt.Fprint(out, color.GreenString("%s", line))
		case strings.HasPrefix(line, "-"):
			_, _ = fmt.Fprint(out, color.RedString("%s", line))
		case strings.HasPrefix(line, "@@"):
			_, _ = fmt.Fprint(out, color.CyanString("%s", line))
		default:
			_, _ = fmt.Fprint(out, line)
		}
	}
	if !strings.HasSuffix(text, "\n") {
		_, _ = fmt.Fprintln(out)
	}
}
