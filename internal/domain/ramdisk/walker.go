package ramdisk

import (
	_ "crypto/sha256" // registers digest.Canonical
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Walker enumerates the regular files under a root directory.
//
// Within a directory, files are visited before subdirectories. Symlinks to
// files are followed, symlinks to directories are not descended. Any I/O error
// ends the walk: a short ramdisk is worse than none.
type Walker struct {
	root          string
	order         Order
	excludeSuffix string
	skip          func(absPath string) bool
	logger        *slog.Logger
}

// candidate is a file found by traversal, not yet measured.
type candidate struct {
	rel string
	abs string
}

// NewWalker resolves root and checks that it is a directory.
func NewWalker(root string, opts ...WalkOption) (*Walker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, abs)
	}

	w := &Walker{
		root:          abs,
		order:         DefaultOrder,
		excludeSuffix: DefaultExcludeSuffix,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	order, err := ParseOrder(string(w.order))
	if err != nil {
		return nil, err
	}
	w.order = order
	return w, nil
}

// Root returns the absolute root directory.
func (w *Walker) Root() string {
	return w.root
}

// Walk calls fn for every included file, assigning indexes in visit order.
// Each file is streamed once to measure its size and digest. The first error
// from the filesystem or from fn stops the walk and is returned.
func (w *Walker) Walk(fn func(FileEntry) error) error {
	next := 0
	visit := func(c candidate) error {
		e, err := measure(c)
		if err != nil {
			return err
		}
		e.Index = next
		next++
		w.logger.Debug("file", slog.Int("index", e.Index), slog.String("path", e.RelPath), slog.Int64("size", e.Size))
		return fn(e)
	}

	if w.order != OrderPath {
		return w.walkDir(w.root, "", visit)
	}

	var all []candidate
	err := w.walkDir(w.root, "", func(c candidate) error {
		all = append(all, c)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].rel < all[j].rel
	})
	for _, c := range all {
		if err := visit(c); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) walkDir(absDir, relDir string, visit func(candidate) error) error {
	entries, err := w.readDir(absDir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", absDir, err)
	}

	var dirs []candidate
	for _, d := range entries {
		name := d.Name()
		c := candidate{
			rel: name,
			abs: filepath.Join(absDir, name),
		}
		if relDir != "" {
			c.rel = relDir + "/" + name
		}

		if d.IsDir() {
			dirs = append(dirs, c)
			continue
		}
		if w.excluded(name) {
			w.logger.Debug("excluded", slog.String("path", c.rel))
			continue
		}
		if w.skip != nil && w.skip(c.abs) {
			w.logger.Debug("skipped", slog.String("path", c.rel))
			continue
		}

		ok, err := w.isRegular(c, d)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := visit(c); err != nil {
			return err
		}
	}

	for _, c := range dirs {
		if err := w.walkDir(c.abs, c.rel, visit); err != nil {
			return err
		}
	}
	return nil
}

// readDir lists a directory. OrderNative keeps the OS listing order.
func (w *Walker) readDir(dir string) ([]os.DirEntry, error) {
	if w.order != OrderNative {
		return os.ReadDir(dir)
	}
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}

func (w *Walker) excluded(name string) bool {
	return w.excludeSuffix != "" && strings.HasSuffix(name, w.excludeSuffix)
}

// isRegular resolves symlinks. A dangling link is an error, not a skip.
func (w *Walker) isRegular(c candidate, d fs.DirEntry) (bool, error) {
	mode := d.Type()
	if mode&fs.ModeSymlink != 0 {
		info, err := os.Stat(c.abs)
		if err != nil {
			return false, fmt.Errorf("stat %s: %w", c.rel, err)
		}
		if info.IsDir() {
			w.logger.Debug("symlink to directory not followed", slog.String("path", c.rel))
			return false, nil
		}
		mode = info.Mode()
	}
	if !mode.IsRegular() {
		w.logger.Debug("skipping non-regular file", slog.String("path", c.rel), slog.String("mode", mode.String()))
		return false, nil
	}
	return true, nil
}

func measure(c candidate) (FileEntry, error) {
	f, err := os.Open(c.abs)
	if err != nil {
		return FileEntry{}, fmt.Errorf("open %s: %w", c.rel, err)
	}
	defer f.Close()

	dg := digest.Canonical.Digester()
	n, err := io.Copy(dg.Hash(), f)
	if err != nil {
		return FileEntry{}, fmt.Errorf("read %s: %w", c.rel, err)
	}
	return FileEntry{
		RelPath: c.rel,
		AbsPath: c.abs,
		Size:    n,
		Digest:  dg.Digest(),
	}, nil
}
