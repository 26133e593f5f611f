package manifest

// Entry is one file recorded in the backup. Files whose content was
// already stored under another name carry the same checksum and archive
// suffix as the canonical copy but no bytes of their own.
type Entry struct {
	Name          string `yaml:"name"`
	Size          uint64 `yaml:"size"`
	Checksum      string `yaml:"blake3_hash,omitempty"`
	BaseSize      uint64 `yaml:"base_size,omitempty"`
	ArchiveSuffix string `yaml:"archive_suffix,omitempty"`
	Reference     bool   `yaml:"reference,omitempty"`
}

// Table summarizes the reconciled replicated-part state of one table.
type Table struct {
	Database  string   `yaml:"database"`
	Table     string   `yaml:"table"`
	PartNames []string `yaml:"part_names"`
	DataPaths []string `yaml:"data_paths,omitempty"`
}

// Backup is the manifest of one finished backup.
type Backup struct {
	Name            string   `yaml:"name"`
	Datetime        int64    `yaml:"datetime"`
	Hosts           []string `yaml:"hosts"`
	Entries         []Entry  `yaml:"entries"`
	Tables          []Table  `yaml:"tables,omitempty"`
	ArchiveSuffixes []string `yaml:"archive_suffixes,omitempty"`
	TotalSize       uint64   `yaml:"total_size"`
	StoredSize      uint64   `yaml:"stored_size"`
}
