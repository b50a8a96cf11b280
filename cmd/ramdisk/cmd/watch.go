package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corey/ramdisk/internal/adapters/fsnotify"
	"github.com/corey/ramdisk/internal/app"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <output> <root>",
		Short: "Regenerate the output whenever root changes",
		Long: "Generates once, then watches <root> recursively and regenerates after every\n" +
			"burst of changes. Failed runs are reported and watching continues. Stops on SIGINT/SIGTERM.",
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, args[0], args[1])
		},
	}
}

func runWatch(cmd *cobra.Command, opts *rootOptions, output, root string) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	paths, err := app.NewPaths(output)
	if err != nil {
		return err
	}
	// Leftovers from a killed run would otherwise sit next to the output forever.
	if n, err := paths.CleanTemps(); err == nil && n > 0 && !opts.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "⚡ removed %d stale temp files\n", n)
	}

	store, err := openStore(cfg.Manifest, true)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	w, err := fsnotify.NewWatcher(fsnotify.Filter{
		ExcludeSuffix: cfg.ExcludeSuffix,
		Ignore:        paths.IsGenerated,
	})
	if err != nil {
		return fmt.Errorf("init watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := newGenerator(cmd, opts, cfg, store)
	color := useColor(opts)
	out := cmd.OutOrStdout()
	onBuild := func(res *app.Result, err error) {
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚡ regenerate failed: %v\n", err)
			return
		}
		if !opts.quiet {
			fmt.Fprintln(out, formatResult(res, color))
		}
	}

	if !opts.quiet {
		fmt.Fprintf(out, "⚡ watching %s\n", root)
	}
	if err := g.Watch(ctx, output, root, w, onBuild); err != nil {
		return err
	}
	if !opts.quiet {
		fmt.Fprintln(out, "\n⚡ shutting down...")
	}
	return nil
}
