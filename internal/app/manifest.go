package app

import (
	"sort"
	"time"

	"github.com/corey/ramdisk/internal/ports"
)

// NewBuild turns a finished generation into a build record.
func NewBuild(res *Result, cfg Config, at time.Time) *ports.Build {
	b := &ports.Build{
		Output:       res.Output,
		Root:         res.Root,
		Order:        cfg.Order,
		Escape:       cfg.Escape,
		Word:         cfg.Word,
		GeneratedAt:  at.Unix(),
		FileCount:    res.Image.Count(),
		TotalSize:    res.Image.TotalSize(),
		OutputDigest: res.Digest,
		Entries:      make([]ports.BuildEntry, 0, res.Image.Count()),
	}
	for _, e := range res.Image.Entries {
		b.Entries = append(b.Entries, ports.BuildEntry{
			Index:  e.Index,
			Path:   e.RelPath,
			Size:   e.Size,
			Digest: e.Digest,
		})
	}
	return b
}

// BuildDiff lists what changed between two builds of the same output.
// Paths are sorted. A path in Reindexed kept its content but moved to a
// different table index, which matters to runtimes that cache indexes.
type BuildDiff struct {
	Added     []string
	Removed   []string
	Changed   []string
	Reindexed []string
}

// Empty reports whether the two builds describe identical tables.
func (d BuildDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0 && len(d.Reindexed) == 0
}

// DiffBuilds compares prev against next. A nil prev treats every entry of
// next as added. Duplicate paths compare by their first occurrence.
func DiffBuilds(prev, next *ports.Build) BuildDiff {
	var d BuildDiff
	before := indexEntries(prev)
	after := indexEntries(next)

	for path, n := range after {
		p, ok := before[path]
		switch {
		case !ok:
			d.Added = append(d.Added, path)
		case p.Digest != n.Digest:
			d.Changed = append(d.Changed, path)
		case p.Index != n.Index:
			d.Reindexed = append(d.Reindexed, path)
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			d.Removed = append(d.Removed, path)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	sort.Strings(d.Reindexed)
	return d
}

func indexEntries(b *ports.Build) map[string]ports.BuildEntry {
	m := make(map[string]ports.BuildEntry)
	if b == nil {
		return m
	}
	for _, e := range b.Entries {
		if _, dup := m[e.Path]; !dup {
			m[e.Path] = e
		}
	}
	return m
}
