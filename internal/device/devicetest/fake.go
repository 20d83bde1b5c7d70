// Package devicetest provides an in-memory Device for tests.
package devicetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/conn-castle/c2-harness/internal/device"
)

// Responder answers a script. ok=false falls through to the next responder.
type Responder func(script string) (res device.Result, ok bool)

// Fake records every script it runs and serves files from memory.
// Scripts with no matching responder succeed with empty output.
type Fake struct {
	mu         sync.Mutex
	files      map[string][]byte
	scripts    []string
	responders []Responder
	readErrs   map[string]error
	// WriteErr, when set, fails every WriteFile.
	WriteErr error
	// RunErr, when set, is returned by every Run after the script is recorded.
	RunErr error
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{files: map[string][]byte{}, readErrs: map[string]error{}}
}

// FailRead makes ReadFile of path return err.
func (f *Fake) FailRead(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErrs[path] = err
}

// SetFile stores content at path.
func (f *Fake) SetFile(path string, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = []byte(content)
}

// File returns the content at path and whether it exists.
func (f *Fake) File(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	return string(data), ok
}

// Respond registers a responder; later registrations take precedence.
func (f *Fake) Respond(r Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responders = append([]Responder{r}, f.responders...)
}

// RespondPrefix answers scripts starting with prefix with res.
func (f *Fake) RespondPrefix(prefix string, res device.Result) {
	f.Respond(func(script string) (device.Result, bool) {
		return res, strings.HasPrefix(script, prefix)
	})
}

// Scripts returns the scripts run so far, in order.
func (f *Fake) Scripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scripts...)
}

// Run records script and returns the first matching response.
func (f *Fake) Run(_ context.Context, script string) (device.Result, error) {
	f.mu.Lock()
	f.scripts = append(f.scripts, script)
	responders := append([]Responder(nil), f.responders...)
	runErr := f.RunErr
	f.mu.Unlock()
	if runErr != nil {
		return device.Result{}, runErr
	}
	for _, r := range responders {
		if res, ok := r(script); ok {
			return res, nil
		}
	}
	return device.Result{}, nil
}

// ReadFile returns the stored content of path.
func (f *Fake) ReadFile(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readErrs[path]; err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, device.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// WriteFile stores data at path.
func (f *Fake) WriteFile(_ context.Context, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.files[path] = append([]byte(nil), data...)
	return nil
}

// Remove deletes path.
func (f *Fake) Remove(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	return nil
}
