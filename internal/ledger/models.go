package ledger

import "time"

// MoveRecord captures one successful relocation. Records are immutable once
// written; only capacity eviction removes them.
type MoveRecord struct {
	ID              int64
	MovedAt         time.Time
	SourcePath      string
	DestinationPath string
	Category        string
	Filename        string
	ContentHash     string
	SizeBytes       int64
}

// HashPath associates one known on-disk path with a content hash.
type HashPath struct {
	Hash string
	Path string
}

// DuplicateGroup is a set of paths sharing identical content.
type DuplicateGroup struct {
	Hash      string
	SizeBytes int64
	Paths     []string
}
