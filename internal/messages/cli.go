package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse   = "c2h"
	RootShort = "Codec2 HAL service integration harness"
	RootLong  = `c2h stops the installed Codec2 HAL service, swaps in a test build with its
configuration, grants the HAL in the vintf manifest, runs the service checks,
and puts the device back.`
	RootVersionFlag = "Print version and exit"
	FlagConfig      = "Path to c2h.toml (default: ./c2h.toml, then built-in defaults)"
	FlagQuiet       = "Suppress environment step logging"
	FlagYes         = "Do not ask before modifying device files"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	RunUse          = "run"
	RunShort        = "Set up the device, run the checks, and tear down"
	RunFlagReport   = "Write a result report (.yaml, .yml, or .json)"
	RunFlagMetrics  = "Write results as a Prometheus textfile"
	RunFlagFilter   = "Run only checks matching these ':'-separated glob patterns"
	RunReportFmt    = "report written to %s\n"
	RunMetricsFmt   = "metrics written to %s\n"
	RunSetUpHintFmt = "SetUp failed: %v\nIf the test binary is still running, stop it with `c2h stop`.\n"

	SetupUse       = "setup"
	SetupShort     = "Prepare the device and launch the test service, then exit"
	SetupDone      = "environment ready; run `c2h teardown` to restore the device\n"
	TeardownUse    = "teardown"
	TeardownShort  = "Restore the newest snapshot and restart the installed service"
	TeardownDone   = "environment restored\n"
	TearDownErrFmt = "TearDown failed: %v\n"

	DiffUse           = "diff"
	DiffShort         = "Show the vintf patch as a unified diff without writing it"
	DiffFlagLines     = "Maximum diff lines per file"
	DiffNoneFmt       = "%s: already grants %s\n"
	DiffUnanchoredFmt = "%s: no %s found; left unchanged\n"

	ComponentsUse       = "components"
	ComponentsShort     = "Print the expected component table"
	ComponentsHeaderFmt = "%-32s %s\n"
	ComponentsHeaderCol = "COMPONENT"
	ComponentsStatusCol = "CREATION STATUS"

	SnapshotsUse     = "snapshots"
	SnapshotsShort   = "List stored device file snapshots, newest first"
	SnapshotsNoneFmt = "no snapshots in %s\n"
	SnapshotsLineFmt = "%s  %-14s  %-16s  %d file(s), %s\n"
	RestoreUse       = "restore [snapshot-id]"
	RestoreShort     = "Restore device files from a snapshot (default: newest)"
	RestoreDoneFmt   = "restored snapshot %s (%d file(s))\n"

	StopUse     = "stop"
	StopShort   = "Interrupt the test service binary"
	StopDoneFmt = "sent SIGINT to %s\n"

	ConfigUse       = "config"
	ConfigShort     = "Print the effective configuration"
	ConfigSourceFmt = "# source: %s\n"

	ConfirmTitleFmt   = "Modify device files over %s?"
	ConfirmDescFmt    = "%d conf file(s) and the vintf manifest under %s will be changed; originals are snapshotted to %s."
	ConfirmDeclined   = "aborted: device left unchanged"
	ConfirmRestoreFmt = "Restore %d file(s) from snapshot %s?"

	// Check output, modeled on gtest.
	OutputBannerFmt     = "[==========] Running %d check(s).\n"
	OutputSetUp         = "[----------] Global test environment set-up.\n"
	OutputTearDown      = "[----------] Global test environment tear-down.\n"
	OutputRunFmt        = "[ RUN      ] %s\n"
	OutputOKFmt         = "[       OK ] %s (%d ms)\n"
	OutputFailedFmt     = "[  FAILED  ] %s (%d ms)\n"
	OutputSkippedFmt    = "[  SKIPPED ] %s\n"
	OutputFailureFmt    = "    %s\n"
	OutputDoneFmt       = "[==========] %d check(s) ran. (%d ms total)\n"
	OutputPassedFmt     = "[  PASSED  ] %d check(s).\n"
	OutputSkippedSumFmt = "[  SKIPPED ] %d check(s).\n"
	OutputFailedSumFmt  = "[  FAILED  ] %d check(s), listed below:\n"
	OutputFailedNameFmt = "[  FAILED  ] %s\n"
)
