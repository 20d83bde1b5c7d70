package codec2

// ExpectedComponent is one row of the expected component table.
type ExpectedComponent struct {
	Name   string `toml:"name" json:"name" yaml:"name"`
	Status Status `toml:"status" json:"status" yaml:"status"`
}

// Table is the expected component table, in declaration order.
type Table []ExpectedComponent

// Find returns the entry named name.
func (t Table) Find(name string) (ExpectedComponent, bool) {
	for _, entry := range t {
		if entry.Name == name {
			return entry, true
		}
	}
	return ExpectedComponent{}, false
}

// Names returns the component names in table order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for _, entry := range t {
		names = append(names, entry.Name)
	}
	return names
}
