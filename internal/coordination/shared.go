package coordination

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Shared is the in-process multi-host coordination backend: one
// instance shared by every host participant running in the same
// process. It implements the same contract as Local but with a genuine
// preparation barrier.
//
// Shared is constructed with the full set of expected host IDs, which
// resolves when finalizing replicated parts is safe: only after the
// last expected host signals success. A Local instance finalizes on the
// first successful signal because it has exactly one implicit host;
// doing that here would truncate reports from slower hosts.
type Shared struct {
	log   *slog.Logger
	hosts []string

	mu       sync.Mutex
	files    *fileIndex
	parts    *replicatedParts
	barrier  *prepareBarrier
	suffixes suffixAllocator
}

var _ BackupCoordination = (*Shared)(nil)

func NewShared(hostIDs []string, log *slog.Logger) *Shared {
	if log == nil {
		log = slog.Default()
	}
	hosts := make([]string, len(hostIDs))
	copy(hosts, hostIDs)
	return &Shared{
		log:     log.With("component", "coordination"),
		hosts:   hosts,
		files:   newFileIndex(),
		parts:   newReplicatedParts(),
		barrier: newPrepareBarrier(),
	}
}

func (c *Shared) AddReplicatedPartNames(hostID string, table TableID, parts []PartNameAndChecksum, dataPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts.addPartNames(table, parts, dataPath)
}

func (c *Shared) HasReplicatedPartNames(hostID string, table TableID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parts.has(table)
}

func (c *Shared) AddReplicatedTableDataPath(hostID string, table TableID, dataPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts.addDataPath(table, dataPath)
}

func (c *Shared) GetReplicatedPartNames(hostID string, table TableID) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parts.partNames(table)
}

func (c *Shared) GetReplicatedTableDataPaths(hostID string, table TableID) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parts.paths(table)
}

func (c *Shared) FinishPreparing(hostID string, errorMessage string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.barrier.signal(hostID, errorMessage) {
		return
	}
	if errorMessage != "" {
		c.log.Warn("host finished preparing with error", "host", hostID, "error", errorMessage)
		return
	}
	c.log.Debug("host finished preparing", "host", hostID)
	if c.barrier.preparedCount(c.hosts) == len(c.hosts) {
		c.parts.prepare()
		c.log.Debug("all hosts prepared, replicated parts finalized", "hosts", len(c.hosts))
	}
}

func (c *Shared) WaitForAllHostsPrepared(ctx context.Context, hostIDs []string, timeout time.Duration) error {
	return c.barrier.wait(ctx, hostIDs, timeout, c.mu.Lock, c.mu.Unlock)
}

func (c *Shared) AddFileInfo(info FileInfo) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.add(info)
}

func (c *Shared) UpdateFileInfo(info FileInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.update(info)
}

func (c *Shared) GetFileInfo(fileName string) (FileInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.byName(fileName)
}

func (c *Shared) GetFileInfoByChecksum(sc SizeAndChecksum) (FileInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.byChecksum(sc)
}

func (c *Shared) GetFileSizeAndChecksum(fileName string) (SizeAndChecksum, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.sizeAndChecksum(fileName)
}

func (c *Shared) AllFileInfos() []FileInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.all()
}

func (c *Shared) ListFiles(prefix, terminator string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.list(prefix, terminator)
}

func (c *Shared) NextArchiveSuffix() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suffixes.next()
}

func (c *Shared) AllArchiveSuffixes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suffixes.all()
}
