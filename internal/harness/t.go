package harness

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// T is handed to each check. Errorf records a failure and lets the check
// continue; Fatalf records a failure and ends the check.
type T struct {
	ctx  context.Context
	name string

	mu       sync.Mutex
	failures []string
}

func newT(ctx context.Context, name string) *T {
	return &T{ctx: ctx, name: name}
}

// Context returns the run context.
func (t *T) Context() context.Context {
	return t.ctx
}

// Name returns the check name.
func (t *T) Name() string {
	return t.name
}

// Errorf records a failure.
func (t *T) Errorf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = append(t.failures, fmt.Sprintf(format, args...))
}

// Fatalf records a failure and stops the check by exiting its goroutine.
// It must be called from the goroutine running the check.
func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	runtime.Goexit()
}

// Expect records a failure when cond is false and reports cond.
func (t *T) Expect(cond bool, format string, args ...any) bool {
	if !cond {
		t.Errorf(format, args...)
	}
	return cond
}

// Assert ends the check when cond is false.
func (t *T) Assert(cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(format, args...)
	}
}

// Failed reports whether any failure was recorded.
func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.failures) > 0
}

// Failures returns the recorded failure messages in order.
func (t *T) Failures() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.failures...)
}
