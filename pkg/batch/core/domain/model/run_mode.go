package model

// RunMode tells whether a run writes an archive from the live catalog or
// rebuilds a catalog from an archive.
type RunMode string

const (
	RunModeBackup  RunMode = "BACKUP"
	RunModeRestore RunMode = "RESTORE"
)

// String returns the string representation of the RunMode.
func (m RunMode) String() string {
	return string(m)
}

// SerializationMode controls whether internal identifiers survive serialization.
type SerializationMode string

const (
	// ExcludeIDs strips internal identifiers; used for backups so an archive
	// can be restored into any catalog.
	ExcludeIDs SerializationMode = "EXCLUDE_IDS"
	// PreserveIDs keeps whatever identifiers the archive carries.
	PreserveIDs SerializationMode = "PRESERVE_IDS"
)

// SerializationModeFor returns the serialization mode a run of the given mode uses.
func SerializationModeFor(mode RunMode) SerializationMode {
	if mode == RunModeBackup {
		return ExcludeIDs
	}
	return PreserveIDs
}
