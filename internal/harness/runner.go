// Package harness prepares the device, runs the service checks, and puts the
// device back.
package harness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/conn-castle/c2-harness/internal/messages"
)

// TearDownTimeout bounds TearDown once the run context is done.
var TearDownTimeout = 2 * time.Minute

// Status is the outcome of one check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result records one check run.
type Result struct {
	Check    string
	Status   Status
	Failures []string
	Duration time.Duration
}

// Observer receives progress while checks run. Either method may be a no-op.
type Observer interface {
	CheckStarted(name string)
	CheckFinished(result Result)
}

// Phases is the SetUp/TearDown pair wrapped around the checks.
type Phases interface {
	SetUp(ctx context.Context) error
	TearDown(ctx context.Context) error
}

// Summary is the outcome of a full run.
type Summary struct {
	StartedAt        time.Time
	SetUpErr         error
	SetUpDuration    time.Duration
	Results          []Result
	TearDownErr      error
	TearDownDuration time.Duration
}

// Passed reports whether SetUp succeeded and no check failed.
func (s Summary) Passed() bool {
	if s.SetUpErr != nil {
		return false
	}
	for _, r := range s.Results {
		if r.Status == StatusFail {
			return false
		}
	}
	return true
}

// Count returns the number of results with status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// SelectChecks keeps the checks whose name matches filter. The filter is a
// ':'-separated list of glob patterns; empty selects everything.
func SelectChecks(checks []Check, filter string) ([]Check, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return checks, nil
	}
	var patterns []glob.Glob
	for _, raw := range strings.Split(filter, ":") {
		if raw == "" {
			continue
		}
		g, err := glob.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf(messages.HarnessFilterInvalidFmt, raw, err)
		}
		patterns = append(patterns, g)
	}
	var selected []Check
	for _, check := range checks {
		for _, g := range patterns {
			if g.Match(check.Name) {
				selected = append(selected, check)
				break
			}
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf(messages.HarnessFilterNoMatchFmt, filter)
	}
	return selected, nil
}

// Run performs SetUp, the checks, and TearDown. When SetUp fails the checks
// are reported as skipped. TearDown always runs, on a context that survives
// cancellation of ctx.
func Run(ctx context.Context, phases Phases, checks []Check, obs Observer) Summary {
	summary := Summary{StartedAt: time.Now()}

	start := time.Now()
	summary.SetUpErr = phases.SetUp(ctx)
	summary.SetUpDuration = time.Since(start)

	if summary.SetUpErr != nil {
		summary.Results = SkipChecks(checks, obs)
	} else {
		summary.Results = RunChecks(ctx, checks, obs)
	}

	tdCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), TearDownTimeout)
	defer cancel()
	start = time.Now()
	summary.TearDownErr = phases.TearDown(tdCtx)
	summary.TearDownDuration = time.Since(start)
	return summary
}

// RunChecks runs each check in turn. A canceled context skips the rest.
func RunChecks(ctx context.Context, checks []Check, obs Observer) []Result {
	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		if ctx.Err() != nil {
			results = append(results, skip(check, obs, ctx.Err().Error()))
			continue
		}
		if obs != nil {
			obs.CheckStarted(check.Name)
		}
		result := runCheck(ctx, check)
		if obs != nil {
			obs.CheckFinished(result)
		}
		results = append(results, result)
	}
	return results
}

// SkipChecks reports every check as skipped because SetUp failed.
func SkipChecks(checks []Check, obs Observer) []Result {
	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		results = append(results, skip(check, obs, messages.HarnessSetUpNotRun))
	}
	return results
}

func skip(check Check, obs Observer, reason string) Result {
	result := Result{Check: check.Name, Status: StatusSkip, Failures: []string{reason}}
	if obs != nil {
		obs.CheckFinished(result)
	}
	return result
}

// runCheck runs check on its own goroutine so Fatalf can end it with
// runtime.Goexit without unwinding the runner.
func runCheck(ctx context.Context, check Check) Result {
	t := newT(ctx, check.Name)
	start := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				t.Errorf(messages.HarnessCheckPanicFmt, r)
			}
		}()
		check.Run(t)
	}()
	<-done

	result := Result{Check: check.Name, Status: StatusPass, Duration: time.Since(start)}
	if t.Failed() {
		result.Status = StatusFail
		result.Failures = t.Failures()
	}
	return result
}
