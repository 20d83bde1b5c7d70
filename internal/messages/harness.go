package messages

// Harness step and check messages.
const (
	HarnessStepClearEnv           = "clearing LD_LIBRARY_PATH for child processes\n"
	HarnessStepStopInitFmt        = "stopping init service %s\n"
	HarnessStepStopBinaryFmt      = "stopping %s\n"
	HarnessStepSnapshotFmt        = "snapshot %s: %d file(s)\n"
	HarnessStepOverlayFmt         = "prepare conf file %s from %s\n"
	HarnessStepVINTFFmt           = "vintf %s: %s\n"
	HarnessVINTFUpdated           = "updated"
	HarnessVINTFUnchanged         = "already grants the HAL"
	HarnessStepRestartRegistryFmt = "restarting %s\n"
	HarnessStepLaunchFmt          = "launching %s\n"
	HarnessStepRestoreFmt         = "restoring snapshot %s\n"
	HarnessStepNoSnapshot         = "no snapshot taken; device files left as they are\n"
	HarnessStepSnapshotSettledFmt = "newest snapshot %s is %s; nothing to restore\n"
	HarnessStepKeepVINTF          = "keeping vintf grant\n"
	HarnessStepStartInitFmt       = "starting init service %s\n"
	HarnessWarnIgnoredFmt         = "warning: %v\n"
	HarnessWarnUnanchoredFmt      = "warning: vintf %s has no %s; left unchanged\n"

	HarnessOverlayFailedFmt  = "prepare conf file %s: %w"
	HarnessSnapshotFailedFmt = "snapshot device files: %w"
	HarnessVINTFFailedFmt    = "enable vendor interface: %w"
	HarnessRegistryFailedFmt = "restart registry: %w"
	HarnessLaunchFailedFmt   = "launch service: %w"
	HarnessNoSnapshotFmt     = "no snapshot to restore: %w"
	HarnessRestoreFailedFmt  = "restore device files: %w"
	HarnessSetUpNotRun       = "SetUp failed; check not run"
	HarnessFilterInvalidFmt  = "invalid check filter %q: %w"
	HarnessFilterNoMatchFmt  = "check filter %q matches no check"
	HarnessCheckPanicFmt     = "panic: %v"

	HarnessExpectConnectFmt       = "connect to instance %q: %v"
	HarnessConnectNilFmt          = "connect to instance %q: client is null"
	HarnessListFailedFmt          = "list components: %v"
	HarnessCountMismatchFmt       = "component count: got %d, want %d"
	HarnessUnexpectedComponentFmt = "unexpected component %q"
	HarnessCreateFailedFmt        = "%s %q: %v"
	HarnessStatusMismatchFmt      = "%s %q: status %s, want %s"
	HarnessHandleNilFmt           = "%s %q: handle is null"
	HarnessHandleNameFmt          = "%s %q: handle reports name %q"
)
