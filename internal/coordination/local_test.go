package coordination

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchiveSuffixSequence(t *testing.T) {
	c := NewLocal(nil)

	var got []string
	for i := 1; i <= 12; i++ {
		suffix := c.NextArchiveSuffix()
		assert.Equal(t, fmt.Sprintf("%03d", i), suffix)
		got = append(got, suffix)
	}

	assert.Equal(t, got, c.AllArchiveSuffixes())
	assert.Equal(t, "001", got[0])
	assert.Equal(t, "012", got[11])
}

func TestLocalWaitReturnsImmediately(t *testing.T) {
	c := NewLocal(nil)

	start := time.Now()
	err := c.WaitForAllHostsPrepared(context.Background(), []string{"ignored"}, time.Hour)
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLocalFinalizesOnFirstSuccess(t *testing.T) {
	c := NewLocal(nil)
	table := TableID{Database: "db", Table: "t"}

	c.AddReplicatedPartNames("", table, []PartNameAndChecksum{{Name: "part-1", Checksum: "c1"}}, "/data/db/t")
	c.AddReplicatedTableDataPath("", table, "/alt/db/t")
	require.True(t, c.HasReplicatedPartNames("", table))

	c.FinishPreparing("", "")

	assert.Equal(t, []string{"part-1"}, c.GetReplicatedPartNames("", table))
	assert.Equal(t, []string{"/alt/db/t", "/data/db/t"}, c.GetReplicatedTableDataPaths("", table))
}

func TestLocalFailedPreparingSkipsFinalize(t *testing.T) {
	c := NewLocal(nil)
	table := TableID{Database: "db", Table: "t"}

	c.AddReplicatedPartNames("", table, []PartNameAndChecksum{{Name: "part-1", Checksum: "c1"}}, "")
	c.FinishPreparing("", "some error")

	// Replicated parts were never finalized.
	assert.Empty(t, c.GetReplicatedPartNames("", table))
}

func TestLocalFileRoundTrip(t *testing.T) {
	c := NewLocal(nil)

	info := FileInfo{FileName: "data/db/t/part-1/col.bin", Size: 4096, Checksum: "cafe", BaseSize: 1024}
	require.True(t, c.AddFileInfo(info))

	info.ArchiveSuffix = c.NextArchiveSuffix()
	require.NoError(t, c.UpdateFileInfo(info))

	got, ok := c.GetFileInfo(info.FileName)
	require.True(t, ok)
	assert.Equal(t, uint64(4096), got.Size)
	assert.Equal(t, "cafe", got.Checksum)
	assert.Equal(t, "001", got.ArchiveSuffix)

	byKey, ok := c.GetFileInfoByChecksum(SizeAndChecksum{Size: 4096, Checksum: "cafe"})
	require.True(t, ok)
	assert.Equal(t, "001", byKey.ArchiveSuffix)

	sc, ok := c.GetFileSizeAndChecksum(info.FileName)
	require.True(t, ok)
	assert.Equal(t, SizeAndChecksum{Size: 4096, Checksum: "cafe"}, sc)

	_, ok = c.GetFileInfo("missing")
	assert.False(t, ok)
}

func TestLocalListFiles(t *testing.T) {
	c := NewLocal(nil)
	for _, name := range []string{"a/b/c", "a/b/d", "a/x"} {
		c.AddFileInfo(FileInfo{FileName: name, Size: 1, Checksum: name})
	}

	assert.Equal(t, []string{"b", "x"}, c.ListFiles("a/", "/"))
	assert.Equal(t, []string{"b/c", "b/d", "x"}, c.ListFiles("a/", ""))
}
