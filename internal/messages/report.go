package messages

// Report messages.
const (
	ReportFormatUnknownFmt = "report %s: unsupported extension %q (use .yaml, .yml, or .json)"
	ReportEncodeFailedFmt  = "encode report %s: %w"
	ReportWriteFailedFmt   = "write report %s: %w"
	ReportMetricsFailedFmt = "write metrics %s: %w"
)
