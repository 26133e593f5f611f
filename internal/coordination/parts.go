package coordination

import "sort"

// replicatedParts reconciles the (part name, checksum) pairs and data
// paths reported by any number of replica hosts into one host-agnostic
// view per logical table. All merge operations are idempotent. Callers
// hold the backend's mutex.
type replicatedParts struct {
	tables   map[TableID]*tableParts
	prepared bool
}

type tableParts struct {
	// part name -> checksum set; dedup happens on the full pair
	parts     map[PartNameAndChecksum]struct{}
	dataPaths map[string]struct{}
	// final sorted form, built by prepare
	partNames []string
	paths     []string
}

func newReplicatedParts() *replicatedParts {
	return &replicatedParts{tables: make(map[TableID]*tableParts)}
}

func (r *replicatedParts) table(id TableID) *tableParts {
	t, ok := r.tables[id]
	if !ok {
		t = &tableParts{
			parts:     make(map[PartNameAndChecksum]struct{}),
			dataPaths: make(map[string]struct{}),
		}
		r.tables[id] = t
	}
	return t
}

func (r *replicatedParts) addPartNames(id TableID, parts []PartNameAndChecksum, dataPath string) {
	t := r.table(id)
	for _, p := range parts {
		t.parts[p] = struct{}{}
	}
	if dataPath != "" {
		t.dataPaths[dataPath] = struct{}{}
	}
}

func (r *replicatedParts) addDataPath(id TableID, dataPath string) {
	r.table(id).dataPaths[dataPath] = struct{}{}
}

func (r *replicatedParts) has(id TableID) bool {
	_, ok := r.tables[id]
	return ok
}

// prepare freezes every table's accumulated sets into their final
// sorted form. Must run only after all expected host reports arrived;
// additions after prepare are not reflected in the accessors.
func (r *replicatedParts) prepare() {
	if r.prepared {
		return
	}
	for _, t := range r.tables {
		seen := make(map[string]struct{}, len(t.parts))
		t.partNames = t.partNames[:0]
		for p := range t.parts {
			if _, dup := seen[p.Name]; dup {
				continue
			}
			seen[p.Name] = struct{}{}
			t.partNames = append(t.partNames, p.Name)
		}
		sort.Strings(t.partNames)

		t.paths = t.paths[:0]
		for path := range t.dataPaths {
			t.paths = append(t.paths, path)
		}
		sort.Strings(t.paths)
	}
	r.prepared = true
}

func (r *replicatedParts) partNames(id TableID) []string {
	if t, ok := r.tables[id]; ok {
		return t.partNames
	}
	return nil
}

func (r *replicatedParts) paths(id TableID) []string {
	if t, ok := r.tables[id]; ok {
		return t.paths
	}
	return nil
}
