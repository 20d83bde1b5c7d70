package messages

// VINTF messages for the vendor interface patch.
const (
	VINTFReadFailedFmt  = "read vendor interface file %s: %w"
	VINTFWriteFailedFmt = "write vendor interface file %s: %w"
	VINTFDiffTruncFmt   = "... (truncated to %d lines; rerun with --diff-lines <n> to see more)"
)
