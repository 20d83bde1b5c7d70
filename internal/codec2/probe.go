package codec2

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/conn-castle/c2-harness/internal/device"
	"github.com/conn-castle/c2-harness/internal/messages"
)

// Probe reaches the store through a prebuilt device-side helper that links
// the platform Codec2 client. The helper understands:
//
//	<probe> connect <instance>
//	<probe> list <instance>
//	<probe> create-component <instance> <name>
//	<probe> create-interface <instance> <name>
//
// connect exits non-zero when the instance cannot be obtained. The other
// commands print one JSON document on stdout.
type Probe struct {
	dev  device.Device
	path string
}

// NewProbe returns a Connector that runs the helper at path on dev.
func NewProbe(dev device.Device, path string) (*Probe, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf(messages.Codec2ProbeRequired)
	}
	return &Probe{dev: dev, path: path}, nil
}

type listOutput struct {
	Components []Traits `json:"components"`
}

type createOutput struct {
	Status Status `json:"status"`
	Name   string `json:"name,omitempty"`
}

// Connect checks that instance is registered and returns a client for it.
func (p *Probe) Connect(ctx context.Context, instance string) (Client, error) {
	res, err := p.dev.Run(ctx, device.Quote(p.path, "connect", instance))
	if err != nil {
		return nil, fmt.Errorf(messages.Codec2ConnectFailedFmt, p.path, instance, err)
	}
	if !res.OK() {
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = messages.Codec2ServiceUnavailable
		}
		return nil, fmt.Errorf(messages.Codec2ConnectFailedFmt, p.path, instance, fmt.Errorf("%w: %s", ErrUnavailable, detail))
	}
	return &probeClient{probe: p, instance: instance}, nil
}

type probeClient struct {
	probe    *Probe
	instance string
}

func (c *probeClient) call(ctx context.Context, out any, args ...string) error {
	op := args[0]
	argv := append([]string{c.probe.path}, args...)
	res, err := c.probe.dev.Run(ctx, device.Quote(argv...))
	if err != nil {
		return fmt.Errorf(messages.Codec2ProbeFailedFmt, op, err)
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf(messages.Codec2ProbeFailedFmt, op, err)
	}
	if err := json.Unmarshal([]byte(res.Stdout), out); err != nil {
		return fmt.Errorf(messages.Codec2ProbeDecodeFailedFmt, op, err)
	}
	return nil
}

func (c *probeClient) ListComponents(ctx context.Context) ([]Traits, error) {
	var out listOutput
	if err := c.call(ctx, &out, "list", c.instance); err != nil {
		return nil, err
	}
	return out.Components, nil
}

func (c *probeClient) CreateComponent(ctx context.Context, name string) (Status, *Component, error) {
	out, err := c.create(ctx, "create-component", name)
	if err != nil {
		return 0, nil, err
	}
	if out.Status != OK || out.Name == "" {
		return out.Status, nil, nil
	}
	return out.Status, NewComponent(out.Name), nil
}

func (c *probeClient) CreateInterface(ctx context.Context, name string) (Status, *Interface, error) {
	out, err := c.create(ctx, "create-interface", name)
	if err != nil {
		return 0, nil, err
	}
	if out.Status != OK || out.Name == "" {
		return out.Status, nil, nil
	}
	return out.Status, NewInterface(out.Name), nil
}

func (c *probeClient) create(ctx context.Context, op string, name string) (createOutput, error) {
	var out createOutput
	if strings.TrimSpace(name) == "" {
		return out, fmt.Errorf(messages.Codec2ComponentNameEmpty)
	}
	err := c.call(ctx, &out, op, c.instance, name)
	return out, err
}
