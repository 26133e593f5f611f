package backup

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/blake3"

	"dtb/internal/coordination"
)

// pendingWrite is a file whose bytes still have to be stored: the first
// registration of its content across all hosts.
type pendingWrite struct {
	info    coordination.FileInfo
	srcPath string
}

// collector runs one host's collect phase: walk the source directory,
// checksum every file, register it with the coordinator, and report
// replicated parts for <database>/<table>/<part> directories.
type collector struct {
	hostID    string
	sourceDir string
	coord     coordination.BackupCoordination
	workers   int
	log       *slog.Logger

	mu      sync.Mutex
	pending []pendingWrite
	tables  map[coordination.TableID]struct{}
}

func newCollector(hostID, sourceDir string, coord coordination.BackupCoordination, workers int, log *slog.Logger) *collector {
	if workers <= 0 {
		workers = 1
	}
	return &collector{
		hostID:    hostID,
		sourceDir: sourceDir,
		coord:     coord,
		workers:   workers,
		log:       log.With("host", hostID),
		tables:    make(map[coordination.TableID]struct{}),
	}
}

// run performs the collect phase and signals the preparation barrier
// with the outcome. The returned error mirrors what was signalled.
func (c *collector) run(ctx context.Context) error {
	err := c.collect(ctx)
	if err != nil {
		c.log.Error("Collect phase failed", "error", err)
		c.coord.FinishPreparing(c.hostID, err.Error())
		return err
	}
	c.coord.FinishPreparing(c.hostID, "")
	return nil
}

func (c *collector) collect(ctx context.Context) error {
	var files []string
	err := filepath.WalkDir(c.sourceDir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk source directory %s: %w", c.sourceDir, err)
	}
	c.log.Info("Collect phase started", "files", len(files))

	// checksums of the files inside each part directory, keyed by
	// table then part name, for the part checksum below
	partFiles := make(map[coordination.TableID]map[string][]string)

	var wg sync.WaitGroup
	taskChan := make(chan string, len(files))
	errChan := make(chan error, len(files))
	var partMu sync.Mutex

	for range c.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range taskChan {
				if ctx.Err() != nil {
					errChan <- ctx.Err()
					return
				}
				info, err := c.registerFile(p)
				if err != nil {
					errChan <- err
					continue
				}
				if table, part, ok := c.splitTablePath(p); ok {
					partMu.Lock()
					if partFiles[table] == nil {
						partFiles[table] = make(map[string][]string)
					}
					partFiles[table][part] = append(partFiles[table][part], info.Checksum)
					partMu.Unlock()
				}
			}
		}()
	}

	for _, p := range files {
		taskChan <- p
	}
	close(taskChan)
	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return fmt.Errorf("failed to collect files: %w", err)
	}

	for table, parts := range partFiles {
		report := make([]coordination.PartNameAndChecksum, 0, len(parts))
		for part, sums := range parts {
			report = append(report, coordination.PartNameAndChecksum{
				Name:     part,
				Checksum: partChecksum(sums),
			})
		}
		sort.Slice(report, func(i, j int) bool { return report[i].Name < report[j].Name })
		dataPath := filepath.Join(c.sourceDir, table.Database, table.Table)
		c.coord.AddReplicatedPartNames(c.hostID, table, report, dataPath)
		c.mu.Lock()
		c.tables[table] = struct{}{}
		c.mu.Unlock()
		c.log.Debug("Reported replicated parts", "table", table.String(), "parts", len(report))
	}

	c.log.Info("Collect phase finished", "files", len(files), "tables", len(partFiles))
	return nil
}

// registerFile checksums one file and registers it with the
// coordinator. Files whose content is new are queued for the write
// phase.
func (c *collector) registerFile(p string) (coordination.FileInfo, error) {
	rel, err := filepath.Rel(c.sourceDir, p)
	if err != nil {
		return coordination.FileInfo{}, err
	}
	name := filepath.ToSlash(rel)

	size, checksum, err := sizeAndBLAKE3(p)
	if err != nil {
		return coordination.FileInfo{}, fmt.Errorf("failed to checksum %s: %w", p, err)
	}

	info := coordination.FileInfo{
		FileName: name,
		Size:     size,
		Checksum: checksum,
	}
	if c.coord.AddFileInfo(info) {
		c.mu.Lock()
		c.pending = append(c.pending, pendingWrite{info: info, srcPath: p})
		c.mu.Unlock()
	}
	return info, nil
}

// splitTablePath recognizes <database>/<table>/<part>/... layouts
// relative to the source directory.
func (c *collector) splitTablePath(p string) (coordination.TableID, string, bool) {
	rel, err := filepath.Rel(c.sourceDir, p)
	if err != nil {
		return coordination.TableID{}, "", false
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	if len(segments) < 4 {
		return coordination.TableID{}, "", false
	}
	return coordination.TableID{Database: segments[0], Table: segments[1]}, segments[2], true
}

// pendingWrites returns the queued writes sorted by file name so the
// write phase is deterministic.
func (c *collector) pendingWrites() []pendingWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]pendingWrite, len(c.pending))
	copy(res, c.pending)
	sort.Slice(res, func(i, j int) bool { return res[i].info.FileName < res[j].info.FileName })
	return res
}

func (c *collector) seenTables() []coordination.TableID {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]coordination.TableID, 0, len(c.tables))
	for t := range c.tables {
		res = append(res, t)
	}
	return res
}

// partChecksum derives a part's checksum from the checksums of the
// files inside it, independent of file order.
func partChecksum(fileChecksums []string) string {
	sorted := make([]string, len(fileChecksums))
	copy(sorted, fileChecksums)
	sort.Strings(sorted)

	hasher := blake3.New()
	for _, sum := range sorted {
		hasher.Write([]byte(sum))
		hasher.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func sizeAndBLAKE3(filename string) (uint64, string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	hasher := blake3.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return 0, "", err
	}
	return uint64(size), fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
