package coordination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplicatedPartsIdempotentMerge(t *testing.T) {
	r := newReplicatedParts()
	table := TableID{Database: "db", Table: "events"}

	r.addPartNames(table, []PartNameAndChecksum{
		{Name: "part-1", Checksum: "c1"},
		{Name: "part-2", Checksum: "c2"},
	}, "/data/replica1/db/events")

	// Overlapping report from another replica.
	r.addPartNames(table, []PartNameAndChecksum{
		{Name: "part-2", Checksum: "c2"},
		{Name: "part-3", Checksum: "c3"},
	}, "/data/replica2/db/events")

	r.prepare()

	assert.Equal(t, []string{"part-1", "part-2", "part-3"}, r.partNames(table))
	assert.Equal(t, []string{"/data/replica1/db/events", "/data/replica2/db/events"}, r.paths(table))
}

func TestReplicatedPartsHas(t *testing.T) {
	r := newReplicatedParts()
	table := TableID{Database: "db", Table: "t"}

	assert.False(t, r.has(table))
	r.addDataPath(table, "/data/db/t")
	assert.True(t, r.has(table))
	assert.False(t, r.has(TableID{Database: "db", Table: "other"}))
}

func TestReplicatedPartsPrepareIsFinal(t *testing.T) {
	r := newReplicatedParts()
	table := TableID{Database: "db", Table: "t"}

	r.addPartNames(table, []PartNameAndChecksum{{Name: "part-1", Checksum: "c1"}}, "")
	r.prepare()
	require.Equal(t, []string{"part-1"}, r.partNames(table))

	// Additions after prepare are not reflected in the accessors.
	r.addPartNames(table, []PartNameAndChecksum{{Name: "part-2", Checksum: "c2"}}, "")
	r.prepare()
	assert.Equal(t, []string{"part-1"}, r.partNames(table))
}

func TestReplicatedPartsUnknownTable(t *testing.T) {
	r := newReplicatedParts()
	r.prepare()

	assert.Nil(t, r.partNames(TableID{Database: "db", Table: "t"}))
	assert.Nil(t, r.paths(TableID{Database: "db", Table: "t"}))
}

func TestReplicatedPartsSamePartDifferentChecksum(t *testing.T) {
	r := newReplicatedParts()
	table := TableID{Database: "db", Table: "t"}

	// Two replicas disagreeing on a part checksum still collapse to one
	// part name in the final view.
	r.addPartNames(table, []PartNameAndChecksum{{Name: "part-1", Checksum: "c1"}}, "")
	r.addPartNames(table, []PartNameAndChecksum{{Name: "part-1", Checksum: "c2"}}, "")
	r.prepare()

	assert.Equal(t, []string{"part-1"}, r.partNames(table))
}
