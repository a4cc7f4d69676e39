package model

import "time"

// LockerRecord is one process found holding a handle under a watched path.
// The process id may already be stale by the time the record is read.
type LockerRecord struct {
	PID            int    `json:"pid" yaml:"pid"`
	ExecutablePath string `json:"executablePath" yaml:"executablePath"`
	ExecutableName string `json:"executableName" yaml:"executableName"`
	LockedPath     string `json:"lockedPath" yaml:"lockedPath"`
	User           string `json:"user,omitempty" yaml:"user,omitempty"`
	// Strategy names the identity lookup that produced ExecutablePath,
	// empty when every lookup failed.
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// HandleKind says how a process refers to a file.
type HandleKind string

const (
	HandleFile  HandleKind = "file"
	HandleMmap  HandleKind = "mmap"
	HandleCwd   HandleKind = "cwd"
	HandleFlock HandleKind = "flock"
)

// OpenHandle is one entry of the system-wide handle table.
type OpenHandle struct {
	PID    int
	Handle uint64
	Path   string
	Kind   HandleKind

	// Dev and Inode identify the file for advisory locks, which are
	// reported by inode rather than by path. Zero elsewhere.
	Dev   uint64
	Inode uint64
}

// Result is what a single scan of a watched path produced.
type Result struct {
	Path      string         `json:"path" yaml:"path"`
	Status    Status         `json:"status" yaml:"status"`
	Ownership Ownership      `json:"ownership" yaml:"ownership"`
	Lockers   []LockerRecord `json:"lockers" yaml:"lockers"`
	// Cancelled is set when the scan stopped early because it was cancelled;
	// Lockers then holds what had been found up to that point.
	Cancelled bool `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	// Truncated is set when the scan stopped at the configured file limit.
	Truncated    bool          `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	FilesScanned int           `json:"filesScanned" yaml:"filesScanned"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}
