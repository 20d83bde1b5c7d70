package messages

// Device messages for the shell transport.
const (
	DeviceTransportInvalidFmt = "unknown device transport %q (allowed: local, adb)"
	DeviceRunFailedFmt        = "run %q: %w"
	DeviceReadFailedFmt       = "read %s: %w"
	DeviceWriteFailedFmt      = "write %s: %w"
	DeviceRemoveFailedFmt     = "remove %s: %w"
	DeviceNotFoundFmt         = "%s: %w"
	DeviceCommandExitFmt      = "command exited with status %d: %s"
)
