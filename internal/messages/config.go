package messages

// Config messages for configuration loading and validation.
const (
	// ConfigMissingFileFmt formats missing config file errors.
	ConfigMissingFileFmt        = "missing config file %s: %w"
	ConfigFailedReadTemplateFmt = "failed to read template config.toml: %w"
	ConfigInvalidConfigFmt      = "invalid config %s: %w"
	ConfigUnrecognizedKeysFmt   = "%s: unrecognized config keys: %w"
	ConfigMergeFailedFmt        = "merge %s over defaults: %w"
	ConfigValidationGuidance    = "(run `c2h config` to print the effective configuration)"
	ConfigStateDirFmt           = "resolve state.dir %q: %w"

	ConfigTransportInvalidFmt      = "%s: device.transport must be local or adb (got %q)"
	ConfigServiceExecutableFmt     = "%s: service.executable is required"
	ConfigServiceExecutablePathFmt = "%s: service.executable must be a file name, not a path (got %q)"
	ConfigServiceDirFmt            = "%s: service.dir is required"
	ConfigNegativeDurationFmt      = "%s: %s must not be negative"
	ConfigRegistryNameFmt          = "%s: registry.name is required"
	ConfigVINTFFieldFmt            = "%s: vintf.%s is required"
	ConfigVINTFInstancesFmt        = "%s: vintf.instances must list at least one instance"
	ConfigConfPathFmt              = "%s: conf.files[%d].path is required"
	ConfigConfPathDuplicateFmt     = "%s: conf.files[%d].path %q duplicates conf.files[%d].path"
	ConfigClientFieldFmt           = "%s: client.%s is required"
	ConfigComponentsEmptyFmt       = "%s: components must list at least one expected component"
	ConfigComponentNameFmt         = "%s: components[%d].name is required"
	ConfigComponentDuplicateFmt    = "%s: components[%d].name %q duplicates components[%d].name"
	ConfigStateDirRequiredFmt      = "%s: state.dir is required"
)
