package messages

// Codec2 messages for status parsing and the probe client.
const (
	Codec2StatusEmpty          = "status is empty"
	Codec2StatusUnknownFmt     = "unknown codec2 status %q"
	Codec2ProbeRequired        = "client probe path is required"
	Codec2ConnectFailedFmt     = "connect to %s instance %q: %w"
	Codec2ServiceUnavailable   = "service not registered"
	Codec2ProbeFailedFmt       = "probe %s: %w"
	Codec2ProbeDecodeFailedFmt = "decode probe %s output: %w"
	Codec2ComponentNameEmpty   = "component name is required"
)
