package messages

// Service lifecycle messages.
const (
	ServiceStopInitFailedFmt  = "stop init service %s: %w"
	ServiceStartInitFailedFmt = "start init service %s: %w"
	ServiceKillFailedFmt      = "kill %s: %w"
	ServiceLaunchFailedFmt    = "launch %s: %w"
	ServiceLaunchExitFmt      = "exit status %d: %s"
	ServiceRestartFailedFmt   = "restart %s: %w"
	ServiceRestartExitFmt     = "restart %s: %w"
	ServiceLibraryPathEmpty   = "service library path is empty"
)
