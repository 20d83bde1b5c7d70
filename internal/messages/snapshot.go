package messages

// Snapshot messages for device file backup and restore.
const (
	SnapshotDirRequired      = "snapshot directory is required"
	SnapshotCreateDirFmt     = "create snapshot directory %s: %w"
	SnapshotReadDeviceFmt    = "back up %s: %w"
	SnapshotWriteFmt         = "write snapshot %s: %w"
	SnapshotReadFmt          = "read snapshot %s: %w"
	SnapshotDecodeFmt        = "decode snapshot %s: %w"
	SnapshotInvalidFmt       = "invalid snapshot %s: %w"
	SnapshotIDInvalidFmt     = "invalid snapshot id %q"
	SnapshotNotFoundFmt      = "snapshot %s not found in %s"
	SnapshotRestoreEntryFmt  = "restore %s: %w"
	SnapshotRestoreFailedFmt = "restore snapshot %s: %w"
	SnapshotPersistStateFmt  = "restore snapshot %s: %w; failed to persist %s state: %v"
	SnapshotPruneFmt         = "delete old snapshot %s: %w"
)
