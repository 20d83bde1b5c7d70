package config

import (
	"fmt"
	"strings"

	"github.com/conn-castle/c2-harness/internal/messages"
)

var validTransports = map[string]struct{}{
	"local": {},
	"adb":   {},
}

// Validate ensures the config is complete and consistent.
func (c *Config) Validate(path string) error {
	if _, ok := validTransports[c.Device.Transport]; !ok {
		return fmt.Errorf(messages.ConfigTransportInvalidFmt, path, c.Device.Transport)
	}

	if strings.TrimSpace(c.Service.Executable) == "" {
		return fmt.Errorf(messages.ConfigServiceExecutableFmt, path)
	}
	if strings.ContainsRune(c.Service.Executable, '/') {
		return fmt.Errorf(messages.ConfigServiceExecutablePathFmt, path, c.Service.Executable)
	}
	if strings.TrimSpace(c.Service.Dir) == "" {
		return fmt.Errorf(messages.ConfigServiceDirFmt, path)
	}
	if c.Service.LaunchSettle < 0 {
		return fmt.Errorf(messages.ConfigNegativeDurationFmt, path, "service.launch_settle")
	}

	if strings.TrimSpace(c.Registry.Name) == "" {
		return fmt.Errorf(messages.ConfigRegistryNameFmt, path)
	}
	if c.Registry.RestartSettle < 0 {
		return fmt.Errorf(messages.ConfigNegativeDurationFmt, path, "registry.restart_settle")
	}

	if err := c.VINTF.validate(path); err != nil {
		return err
	}

	seenConf := make(map[string]int, len(c.Conf.Files))
	for i, file := range c.Conf.Files {
		if strings.TrimSpace(file.Path) == "" {
			return fmt.Errorf(messages.ConfigConfPathFmt, path, i)
		}
		if prev, ok := seenConf[file.Path]; ok {
			return fmt.Errorf(messages.ConfigConfPathDuplicateFmt, path, i, file.Path, prev)
		}
		seenConf[file.Path] = i
	}

	if strings.TrimSpace(c.Client.Instance) == "" {
		return fmt.Errorf(messages.ConfigClientFieldFmt, path, "instance")
	}
	if strings.TrimSpace(c.Client.Probe) == "" {
		return fmt.Errorf(messages.ConfigClientFieldFmt, path, "probe")
	}

	if strings.TrimSpace(c.State.Dir) == "" {
		return fmt.Errorf(messages.ConfigStateDirRequiredFmt, path)
	}

	if len(c.Components) == 0 {
		return fmt.Errorf(messages.ConfigComponentsEmptyFmt, path)
	}
	seen := make(map[string]int, len(c.Components))
	for i, component := range c.Components {
		if strings.TrimSpace(component.Name) == "" {
			return fmt.Errorf(messages.ConfigComponentNameFmt, path, i)
		}
		if prev, ok := seen[component.Name]; ok {
			return fmt.Errorf(messages.ConfigComponentDuplicateFmt, path, i, component.Name, prev)
		}
		seen[component.Name] = i
	}
	return nil
}

func (v VINTFConfig) validate(path string) error {
	required := []struct {
		key   string
		value string
	}{
		{"dir", v.Dir},
		{"hal_name", v.HALName},
		{"version", v.Version},
		{"interface", v.Interface},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf(messages.ConfigVINTFFieldFmt, path, field.key)
		}
	}
	if len(v.Instances) == 0 {
		return fmt.Errorf(messages.ConfigVINTFInstancesFmt, path)
	}
	return nil
}
