// Package coordination keeps the shared bookkeeping for a multi-host
// backup of a replicated table engine: content-addressed file
// deduplication, replicated-part reconciliation, the host preparation
// barrier, and archive suffix allocation.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SizeAndChecksum identifies file content independent of its name or
// origin host. Checksum is a hex-encoded BLAKE3 digest.
type SizeAndChecksum struct {
	Size     uint64
	Checksum string
}

// FileInfo describes one file contributed to the backup. BaseSize is the
// number of bytes already covered by an incremental base backup.
// ArchiveSuffix is set once the file's bytes have been written to an
// archive segment.
type FileInfo struct {
	FileName      string
	Size          uint64
	Checksum      string
	BaseSize      uint64
	ArchiveSuffix string
}

func (fi FileInfo) SizeAndChecksum() SizeAndChecksum {
	return SizeAndChecksum{Size: fi.Size, Checksum: fi.Checksum}
}

// TableID is the logical identity of a replicated table, shared by all
// replicas regardless of host.
type TableID struct {
	Database string
	Table    string
}

func (t TableID) String() string {
	return t.Database + "." + t.Table
}

// PartNameAndChecksum is one replicated data part as reported by a
// replica host.
type PartNameAndChecksum struct {
	Name     string
	Checksum string
}

// ErrWaitTimeout is returned by WaitForAllHostsPrepared when the timeout
// elapses before every host reaches a terminal status.
var ErrWaitTimeout = errors.New("timed out waiting for hosts to prepare")

// HostFailedError reports that a host finished its preparation phase
// with an error, aborting the backup.
type HostFailedError struct {
	HostID  string
	Message string
}

func (e *HostFailedError) Error() string {
	return fmt.Sprintf("host %s failed to prepare: %s", e.HostID, e.Message)
}

// BackupCoordination is the contract every coordination backend must
// satisfy. The host parameter is threaded through every call so that a
// distributed backend can attribute reports; the local backend ignores
// it. All implementations must serialize mutations so that AddFileInfo
// keeps its first-registrant-wins guarantee under concurrency.
type BackupCoordination interface {
	// Replicated part bookkeeping. Reports from any number of hosts for
	// the same table merge into one shared set.
	AddReplicatedPartNames(hostID string, table TableID, parts []PartNameAndChecksum, dataPath string)
	HasReplicatedPartNames(hostID string, table TableID) bool
	AddReplicatedTableDataPath(hostID string, table TableID, dataPath string)
	// Valid only after the preparation phase finished successfully.
	GetReplicatedPartNames(hostID string, table TableID) []string
	GetReplicatedTableDataPaths(hostID string, table TableID) []string

	// Preparation barrier. FinishPreparing is terminal per host: a
	// non-empty errorMessage marks the host failed, otherwise prepared.
	FinishPreparing(hostID string, errorMessage string)
	// WaitForAllHostsPrepared blocks until every listed host reached a
	// terminal status. Returns nil on success, *HostFailedError if any
	// host failed, ErrWaitTimeout on deadline, or the context error.
	WaitForAllHostsPrepared(ctx context.Context, hostIDs []string, timeout time.Duration) error

	// File dedup registry. AddFileInfo reports whether the caller must
	// physically write the file's bytes: true exactly once per distinct
	// non-empty content across the whole backup.
	AddFileInfo(info FileInfo) bool
	// UpdateFileInfo records the archive suffix for already-registered
	// content. Calling it for content never registered is a protocol
	// violation and returns an error.
	UpdateFileInfo(info FileInfo) error
	GetFileInfo(fileName string) (FileInfo, bool)
	GetFileInfoByChecksum(sc SizeAndChecksum) (FileInfo, bool)
	GetFileSizeAndChecksum(fileName string) (SizeAndChecksum, bool)
	AllFileInfos() []FileInfo
	ListFiles(prefix, terminator string) []string

	// Archive suffix allocation: "001", "002", ... shared by all hosts.
	NextArchiveSuffix() string
	AllArchiveSuffixes() []string
}
