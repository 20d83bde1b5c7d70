package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/conn-castle/c2-harness/internal/harness"
	"github.com/conn-castle/c2-harness/internal/messages"
)

// printer renders check progress in gtest style. It implements harness.Observer.
type printer struct {
	out   io.Writer
	green func(format string, a ...interface{}) string
	red   func(format string, a ...interface{}) string
	cyan  func(format string, a ...interface{}) string
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:   out,
		green: color.GreenString,
		red:   color.RedString,
		cyan:  color.CyanString,
	}
}

func (p *printer) banner(checks int) {
	_, _ = fmt.Fprint(p.out, p.green(messages.OutputBannerFmt, checks))
	_, _ = fmt.Fprint(p.out, p.green(messages.OutputSetUp))
}

func (p *printer) tearDown() {
	_, _ = fmt.Fprint(p.out, p.green(messages.OutputTearDown))
}

func (p *printer) CheckStarted(name string) {
	_, _ = fmt.Fprint(p.out, p.green(messages.OutputRunFmt, name))
}

func (p *printer) CheckFinished(result harness.Result) {
	switch result.Status {
	case harness.StatusPass:
		_, _ = fmt.Fprint(p.out, p.green(messages.OutputOKFmt, result.Check, result.Duration.Milliseconds()))
	case harness.StatusFail:
		for _, failure := range result.Failures {
			_, _ = fmt.Fprintf(p.out, messages.OutputFailureFmt, failure)
		}
		_, _ = fmt.Fprint(p.out, p.red(messages.OutputFailedFmt, result.Check, result.Duration.Milliseconds()))
	case harness.StatusSkip:
		_, _ = fmt.Fprint(p.out, p.cyan(messages.OutputSkippedFmt, result.Check))
	}
}

func (p *printer) summary(s harness.Summary, total time.Duration) {
	ran := len(s.Results) - s.Count(harness.StatusSkip)
	_, _ = fmt.Fprint(p.out, p.green(messages.OutputDoneFmt, ran, total.Milliseconds()))
	_, _ = fmt.Fprint(p.out, p.green(messages.OutputPassedFmt, s.Count(harness.StatusPass)))
	if skipped := s.Count(harness.StatusSkip); skipped > 0 {
		_, _ = fmt.Fprint(p.out, p.cyan(messages.OutputSkippedSumFmt, skipped))
	}
	if failed := s.Count(harness.StatusFail); failed > 0 {
		_, _ = fmt.Fprint(p.out, p.red(messages.OutputFailedSumFmt, failed))
		for _, r := range s.Results {
			if r.Status == harness.StatusFail {
				_, _ = fmt.Fprint(p.out, p.red(messages.OutputFailedNameFmt, r.Check))
			}
		}
	}
}
