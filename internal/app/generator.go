package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/corey/ramdisk/internal/domain/ramdisk"
	"github.com/corey/ramdisk/internal/ports"
	"github.com/opencontainers/go-digest"
)

// Generator runs one Walker -> Emitter pass per call and replaces the output
// file only when the pass completes. Nothing is shared between calls.
type Generator struct {
	Config Config
	Store  ports.ManifestStore // nil disables build records
	Logger *slog.Logger        // diagnostics; nil discards
	Status io.Writer           // progress lines; nil discards
	Now    func() time.Time
}

// Result holds statistics from a Generate operation.
type Result struct {
	Output  string
	Root    string
	Image   *ramdisk.Image
	Digest  digest.Digest // sha256 of the written source
	Build   *ports.Build  // nil when no store is configured
	Elapsed time.Duration
}

// NewGenerator returns a Generator with cfg and no store.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		Config: cfg,
		Now:    time.Now,
	}
}

// Generate walks root and writes the ramdisk source to output.
//
// The run is all-or-nothing: an invalid root fails before anything is
// written, and any later error removes the temporary file and leaves a
// previous output untouched.
func (g *Generator) Generate(output, root string) (*Result, error) {
	start := time.Now()
	if err := g.Config.Validate(); err != nil {
		return nil, err
	}

	paths, err := NewPaths(output)
	if err != nil {
		return nil, err
	}

	walkOpts, err := g.Config.walkOptions()
	if err != nil {
		return nil, err
	}
	walkOpts = append(walkOpts,
		ramdisk.WalkWithSkip(paths.IsGenerated),
		ramdisk.WalkWithLogger(g.logger()),
	)
	walker, err := ramdisk.NewWalker(root, walkOpts...)
	if err != nil {
		return nil, err
	}

	emitOpts, err := g.Config.emitOptions()
	if err != nil {
		return nil, err
	}

	g.statusf("⚡ ramdisk: output = %s\n", paths.Output)
	g.statusf("⚡ ramdisk: root = %s\n", walker.Root())

	if g.Config.Verbose {
		emitOpts = append(emitOpts, ramdisk.EmitWithEntryHook(func(entry ramdisk.FileEntry) {
			g.statusf("  %s\n", entry.RelPath)
		}))
	}

	img, sum, err := writeAtomic(paths, func(w io.Writer) (*ramdisk.Image, error) {
		return ramdisk.Emit(w, walker, emitOpts...)
	})
	if err != nil {
		return nil, err
	}

	g.statusf("⚡ ramdisk: Found %d files.\n", img.Count())

	res := &Result{
		Output: paths.Output,
		Root:   walker.Root(),
		Image:  img,
		Digest: sum,
	}

	if g.Store != nil {
		b := NewBuild(res, g.Config, g.now())
		if err := g.Store.SaveBuild(b); err != nil {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("record build: %w", err)
		}
		res.Build = b
		g.logger().Debug("build recorded", slog.String("output", b.Output), slog.Uint64("seq", b.Seq))
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// writeAtomic streams write's output into a temporary sibling of the output
// file and renames it into place once write, sync and close all succeed.
func writeAtomic(paths *Paths, write func(io.Writer) (*ramdisk.Image, error)) (*ramdisk.Image, digest.Digest, error) {
	tmp, err := os.CreateTemp(paths.Dir, paths.TempPattern)
	if err != nil {
		return nil, "", fmt.Errorf("create temp output: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	dg := digest.Canonical.Digester()
	img, err := write(io.MultiWriter(tmp, dg.Hash()))
	if err != nil {
		return nil, "", err
	}

	if err := tmp.Sync(); err != nil {
		return nil, "", fmt.Errorf("sync output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, "", fmt.Errorf("close output: %w", err)
	}
	// CreateTemp uses 0600; generated sources are ordinary build files.
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return nil, "", fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmp.Name(), paths.Output); err != nil {
		return nil, "", fmt.Errorf("replace output: %w", err)
	}
	committed = true
	return img, dg.Digest(), nil
}

func (g *Generator) statusf(format string, args ...any) {
	if g.Status == nil {
		return
	}
	fmt.Fprintf(g.Status, format, args...)
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g.Logger
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}
