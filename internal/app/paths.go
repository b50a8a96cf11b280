package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const tempSuffix = ".tmp"

// Paths holds the resolved filesystem paths for one output file.
// All fields are computed once by NewPaths.
type Paths struct {
	Output      string // /abs/dir/ramdisk.S
	Dir         string // /abs/dir
	TempPattern string // .ramdisk.S.*.tmp (os.CreateTemp pattern)
	TempPrefix  string // .ramdisk.S. (every temporary name starts with it)
}

// NewPaths resolves output against the working directory.
func NewPaths(output string) (*Paths, error) {
	if output == "" {
		return nil, fmt.Errorf("empty output path")
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("resolve output %s: %w", output, err)
	}
	prefix := "." + filepath.Base(abs) + "."
	return &Paths{
		Output:      abs,
		Dir:         filepath.Dir(abs),
		TempPattern: prefix + "*" + tempSuffix,
		TempPrefix:  prefix,
	}, nil
}

// IsGenerated reports whether path is the output or one of its temporaries.
// Used to keep the generator from embedding its own output. The test is
// structural, so metacharacters in the directory name do not matter.
func (p *Paths) IsGenerated(path string) bool {
	path = filepath.Clean(path)
	if path == p.Output {
		return true
	}
	return filepath.Dir(path) == p.Dir && p.isTempName(filepath.Base(path))
}

func (p *Paths) isTempName(name string) bool {
	return len(name) > len(p.TempPrefix)+len(tempSuffix) &&
		strings.HasPrefix(name, p.TempPrefix) &&
		strings.HasSuffix(name, tempSuffix)
}

// CleanTemps removes temporaries left behind by an interrupted run.
// Returns the number of files removed.
func (p *Paths) CleanTemps() (int, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !p.isTempName(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(p.Dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return count, err
		}
		count++
	}
	return count, nil
}
