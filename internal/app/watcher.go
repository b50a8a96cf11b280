package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corey/ramdisk/internal/ports"
	"golang.org/x/sync/errgroup"
)

// regenerateDelay coalesces bursts of change events into one generation.
const regenerateDelay = 100 * time.Millisecond

// Watch generates once, then regenerates after every burst of changes under
// root until ctx is cancelled. A failing first generation is returned; later
// failures go to onBuild and watching continues. onBuild may be nil.
func (g *Generator) Watch(ctx context.Context, output, root string, w ports.Watcher, onBuild func(*Result, error)) error {
	if onBuild == nil {
		onBuild = func(*Result, error) {}
	}

	paths, err := NewPaths(output)
	if err != nil {
		return err
	}
	res, err := g.Generate(output, root)
	if err != nil {
		return err
	}
	onBuild(res, nil)

	changed := make(chan struct{}, 1)
	onFileChanged := func(path string) {
		if paths.IsGenerated(path) {
			return
		}
		g.logger().Debug("change", slog.String("path", path))
		select {
		case changed <- struct{}{}:
		default: // a regeneration is already pending
		}
	}
	if err := w.Watch(root, onFileChanged); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		return w.Stop()
	})
	eg.Go(func() error {
		timer := time.NewTimer(regenerateDelay)
		timer.Stop()
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-changed:
				timer.Reset(regenerateDelay)
			case <-timer.C:
				res, err := g.Generate(output, root)
				onBuild(res, err)
			}
		}
	})
	return eg.Wait()
}
