package harness

import (
	"context"

	"github.com/conn-castle/c2-harness/internal/codec2"
	"github.com/conn-castle/c2-harness/internal/messages"
)

// Check names, in run order.
const (
	CheckStart           = "Start"
	CheckGetComponents   = "getComponents"
	CheckCreateComponent = "createComponent"
	CheckCreateInterface = "createInterface"
)

// Check is one named test case.
type Check struct {
	Name string
	Run  func(t *T)
}

// Suite holds what the checks need to reach the service.
type Suite struct {
	Connector  codec2.Connector
	Instance   string
	Components codec2.Table
}

// Checks returns the checks in run order.
func (s *Suite) Checks() []Check {
	return []Check{
		{Name: CheckStart, Run: s.start},
		{Name: CheckGetComponents, Run: s.getComponents},
		{Name: CheckCreateComponent, Run: s.createComponent},
		{Name: CheckCreateInterface, Run: s.createInterface},
	}
}

func (s *Suite) start(t *T) {
	client, err := s.Connector.Connect(t.Context(), s.Instance)
	if err != nil {
		t.Errorf(messages.HarnessExpectConnectFmt, s.Instance, err)
		return
	}
	t.Expect(client != nil, messages.HarnessConnectNilFmt, s.Instance)
}

// requireClient connects or ends the check.
func (s *Suite) requireClient(t *T) codec2.Client {
	client, err := s.Connector.Connect(t.Context(), s.Instance)
	if err != nil {
		t.Fatalf(messages.HarnessExpectConnectFmt, s.Instance, err)
	}
	t.Assert(client != nil, messages.HarnessConnectNilFmt, s.Instance)
	return client
}

func (s *Suite) getComponents(t *T) {
	client := s.requireClient(t)
	listed, err := client.ListComponents(t.Context())
	if err != nil {
		t.Fatalf(messages.HarnessListFailedFmt, err)
	}
	t.Expect(len(listed) == len(s.Components), messages.HarnessCountMismatchFmt, len(listed), len(s.Components))
	for _, traits := range listed {
		_, ok := s.Components.Find(traits.Name)
		t.Expect(ok, messages.HarnessUnexpectedComponentFmt, traits.Name)
	}
}

// namedHandle is satisfied by *codec2.Component and *codec2.Interface.
type namedHandle interface {
	Name() string
}

type createFunc func(ctx context.Context, client codec2.Client, name string) (codec2.Status, namedHandle, error)

func (s *Suite) createComponent(t *T) {
	s.createEach(t, "createComponent", func(ctx context.Context, client codec2.Client, name string) (codec2.Status, namedHandle, error) {
		status, component, err := client.CreateComponent(ctx, name)
		if component == nil {
			return status, nil, err
		}
		return status, component, err
	})
}

func (s *Suite) createInterface(t *T) {
	s.createEach(t, "createInterface", func(ctx context.Context, client codec2.Client, name string) (codec2.Status, namedHandle, error) {
		status, intf, err := client.CreateInterface(ctx, name)
		if intf == nil {
			return status, nil, err
		}
		return status, intf, err
	})
}

// createEach creates every expected component and compares the outcome
// with the table. Each handle is dropped right after its comparison.
func (s *Suite) createEach(t *T, op string, create createFunc) {
	client := s.requireClient(t)
	for _, want := range s.Components {
		status, handle, err := create(t.Context(), client, want.Name)
		if err != nil {
			t.Errorf(messages.HarnessCreateFailedFmt, op, want.Name, err)
			continue
		}
		t.Expect(status == want.Status, messages.HarnessStatusMismatchFmt, op, want.Name, status, want.Status)
		if want.Status != codec2.OK {
			continue
		}
		if t.Expect(handle != nil, messages.HarnessHandleNilFmt, op, want.Name) {
			t.Expect(handle.Name() == want.Name, messages.HarnessHandleNameFmt, op, want.Name, handle.Name())
		}
	}
}
