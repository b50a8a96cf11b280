// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Generation logic
// depends only on these interfaces, never on concrete implementations.
package ports

import "github.com/opencontainers/go-digest"

// ManifestStore persists a record of every successful generation.
// Records are keyed by the absolute output path: each output gets its own
// namespace holding the latest build plus an append-only history.
//
// Crash safety: SaveBuild must be transactional. A crash mid-write must not
// corrupt previously committed builds.
type ManifestStore interface {
	// SaveBuild appends build to the output's history and makes it the
	// latest. The store assigns build.Seq.
	SaveBuild(build *Build) error

	// LatestBuild returns the most recent build for output.
	// Returns nil, nil if the output has never been recorded.
	LatestBuild(output string) (*Build, error)

	// History returns up to limit builds for output, newest first.
	// limit <= 0 returns all of them.
	History(output string, limit int) ([]*Build, error)

	// Outputs lists every recorded output path, sorted.
	Outputs() ([]string, error)

	// DeleteOutput removes all builds for output.
	// Idempotent: deleting an unknown output is not an error.
	DeleteOutput(output string) error
}

// Build describes one generated ramdisk source file.
type Build struct {
	Seq          uint64        `json:"seq"`
	Output       string        `json:"output"` // absolute output path
	Root         string        `json:"root"`   // absolute root directory
	Order        string        `json:"order"`
	Escape       string        `json:"escape"`
	Word         string        `json:"word"`
	GeneratedAt  int64         `json:"generated_at"` // unix seconds
	FileCount    int           `json:"file_count"`   // value of ramdisk_num
	TotalSize    int64         `json:"total_size"`   // sum of entry sizes
	OutputDigest digest.Digest `json:"output_digest"`
	Entries      []BuildEntry  `json:"entries"`
}

// BuildEntry is one row of the three tables.
type BuildEntry struct {
	Index  int           `json:"index"`
	Path   string        `json:"path"`
	Size   int64         `json:"size"` // bytes between file{i}_data and file{i}_end
	Digest digest.Digest `json:"digest"`
}
