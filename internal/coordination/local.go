package coordination

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Local is the reference single-process coordination backend. All state
// lives behind one mutex; host identity is accepted for contract
// compatibility and ignored. It assumes exactly one implicit host, so
// replicated parts are finalized on the first successful
// FinishPreparing and WaitForAllHostsPrepared returns immediately.
//
// Any distributed backend must reproduce exactly the semantics
// observable through this type.
type Local struct {
	log *slog.Logger

	mu       sync.Mutex
	files    *fileIndex
	parts    *replicatedParts
	suffixes suffixAllocator
}

var _ BackupCoordination = (*Local)(nil)

func NewLocal(log *slog.Logger) *Local {
	if log == nil {
		log = slog.Default()
	}
	return &Local{
		log:   log.With("component", "coordination"),
		files: newFileIndex(),
		parts: newReplicatedParts(),
	}
}

func (c *Local) AddReplicatedPartNames(_ string, table TableID, parts []PartNameAndChecksum, dataPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts.addPartNames(table, parts, dataPath)
}

func (c *Local) HasReplicatedPartNames(_ string, table TableID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parts.has(table)
}

func (c *Local) AddReplicatedTableDataPath(_ string, table TableID, dataPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts.addDataPath(table, dataPath)
}

func (c *Local) GetReplicatedPartNames(_ string, table TableID) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parts.partNames(table)
}

func (c *Local) GetReplicatedTableDataPaths(_ string, table TableID) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parts.paths(table)
}

func (c *Local) FinishPreparing(_ string, errorMessage string) {
	if errorMessage != "" {
		c.log.Debug("finished preparing with error", "error", errorMessage)
		return
	}
	c.log.Debug("finished preparing")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts.prepare()
}

// WaitForAllHostsPrepared returns immediately: the single implicit host
// has nothing to wait for.
func (c *Local) WaitForAllHostsPrepared(context.Context, []string, time.Duration) error {
	return nil
}

func (c *Local) AddFileInfo(info FileInfo) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.add(info)
}

func (c *Local) UpdateFileInfo(info FileInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.update(info)
}

func (c *Local) GetFileInfo(fileName string) (FileInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.byName(fileName)
}

func (c *Local) GetFileInfoByChecksum(sc SizeAndChecksum) (FileInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.byChecksum(sc)
}

func (c *Local) GetFileSizeAndChecksum(fileName string) (SizeAndChecksum, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.sizeAndChecksum(fileName)
}

func (c *Local) AllFileInfos() []FileInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.all()
}

func (c *Local) ListFiles(prefix, terminator string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.list(prefix, terminator)
}

func (c *Local) NextArchiveSuffix() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suffixes.next()
}

func (c *Local) AllArchiveSuffixes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suffixes.all()
}
