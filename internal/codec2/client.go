package codec2

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the store could not be reached by name.
var ErrUnavailable = errors.New("codec2 store unavailable")

// Traits describes one component advertised by the store.
type Traits struct {
	Name      string   `json:"name"`
	Domain    string   `json:"domain,omitempty"`
	Kind      string   `json:"kind,omitempty"`
	MediaType string   `json:"media_type,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
}

// Component is a handle to a created component.
type Component struct {
	name string
}

// Name returns the name the component reports for itself.
func (c *Component) Name() string {
	return c.name
}

// Interface is a handle to a created component interface.
type Interface struct {
	name string
}

// Name returns the name the interface reports for its component.
func (i *Interface) Name() string {
	return i.name
}

// NewComponent returns a component handle reporting name.
func NewComponent(name string) *Component {
	return &Component{name: name}
}

// NewInterface returns an interface handle reporting name.
func NewInterface(name string) *Interface {
	return &Interface{name: name}
}

// Client is a connection to a component store.
// Create calls return a nil handle whenever the status is not OK.
type Client interface {
	ListComponents(ctx context.Context) ([]Traits, error)
	CreateComponent(ctx context.Context, name string) (Status, *Component, error)
	CreateInterface(ctx context.Context, name string) (Status, *Interface, error)
}

// Connector obtains a Client for a named store instance.
type Connector interface {
	// Connect returns an error wrapping ErrUnavailable when the instance is
	// not registered with the service manager.
	Connect(ctx context.Context, instance string) (Client, error)
}
