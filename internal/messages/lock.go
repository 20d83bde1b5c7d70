package messages

// Lock messages for the host-side device lock.
const (
	LockCreateDirFmt = "create lock directory %s: %w"
	LockOpenFmt      = "open lock file %s: %w"
	LockAcquireFmt   = "acquire lock %s: %w"
	LockBusyFmt      = "another c2h run holds %s (waited %s)"
)
