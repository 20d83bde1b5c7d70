package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/c2-harness/internal/messages"
	"github.com/conn-castle/c2-harness/internal/templates"
)

// ErrConfigValidation is a sentinel that wraps config validation failures
// (as opposed to TOML syntax, filesystem, or other loading errors).
var ErrConfigValidation = errors.New("config validation failed")

// DefaultFileName is the config file picked up from the working directory.
const DefaultFileName = "c2h.toml"

// DefaultSource names the embedded defaults in messages.
const DefaultSource = "built-in defaults"

var readTemplate = templates.Read

// Load returns the effective configuration.
// An explicit path must exist. With an empty path, ./c2h.toml is used when
// present; otherwise the built-in defaults apply unchanged.
func Load(path string) (*Config, string, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFileName); err != nil {
			cfg, err := LoadDefaults()
			return cfg, DefaultSource, err
		}
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf(messages.ConfigMissingFileFmt, path, err)
	}
	cfg, err := ParseConfig(data, path)
	return cfg, path, err
}

// LoadDefaults returns the embedded default config.
func LoadDefaults() (*Config, error) {
	data, err := readTemplate("config.toml")
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigFailedReadTemplateFmt, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidConfigFmt, DefaultSource, err)
	}
	if err := cfg.Validate(DefaultSource); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return &cfg, nil
}

// ParseConfig overlays data on the built-in defaults and validates the result.
// Tables merge key by key; arrays (including [[components]]) replace the
// default array as a whole. source is used in error messages.
func ParseConfig(data []byte, source string) (*Config, error) {
	var probe map[string]any
	if err := toml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidConfigFmt, source, err)
	}
	if err := decodeStrict(data); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: "+messages.ConfigUnrecognizedKeysFmt+" "+messages.ConfigValidationGuidance, ErrConfigValidation, source, err)
		}
		return nil, fmt.Errorf(messages.ConfigInvalidConfigFmt, source, err)
	}

	defaultsData, err := readTemplate("config.toml")
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigFailedReadTemplateFmt, err)
	}
	var merged map[string]any
	if err := toml.Unmarshal(defaultsData, &merged); err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidConfigFmt, DefaultSource, err)
	}
	mergeTables(merged, probe)
	mergedData, err := toml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigMergeFailedFmt, source, err)
	}

	var cfg Config
	if err := toml.Unmarshal(mergedData, &cfg); err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidConfigFmt, source, err)
	}
	if err := cfg.Validate(source); err != nil {
		return nil, fmt.Errorf("%w: %w "+messages.ConfigValidationGuidance, ErrConfigValidation, err)
	}
	return &cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeStrict re-decodes the TOML data with strict unknown-field rejection.
func decodeStrict(data []byte) error {
	var cfg Config
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(&cfg)
}

// mergeTables copies src into dst, descending into tables present in both.
func mergeTables(dst map[string]any, src map[string]any) {
	for key, value := range src {
		srcTable, srcIsTable := value.(map[string]any)
		dstTable, dstIsTable := dst[key].(map[string]any)
		if srcIsTable && dstIsTable {
			mergeTables(dstTable, srcTable)
			continue
		}
		dst[key] = value
	}
}
