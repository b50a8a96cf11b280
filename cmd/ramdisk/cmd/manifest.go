package cmd

import (
	"errors"
	"fmt"

	"github.com/corey/ramdisk/internal/adapters/bbolt"
	"github.com/corey/ramdisk/internal/app"
	"github.com/corey/ramdisk/internal/ports"
	"github.com/spf13/cobra"
)

var errNoManifest = errors.New("no manifest database configured (use --manifest or 'manifest:' in " + app.DefaultConfigFile + ")")

func newManifestCmd(opts *rootOptions) *cobra.Command {
	var historyLimit int

	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect recorded builds",
	}

	showCmd := &cobra.Command{
		Use:   "show <output>",
		Short: "Show the latest build of an output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManifest(cmd, opts, func(store *bbolt.Store) error {
				return runManifestShow(cmd, opts, store, args[0])
			})
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history <output>",
		Short: "List builds of an output, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManifest(cmd, opts, func(store *bbolt.Store) error {
				return runManifestHistory(cmd, opts, store, args[0], historyLimit)
			})
		},
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Maximum builds to list (0 for all)")

	diffCmd := &cobra.Command{
		Use:   "diff <output>",
		Short: "Compare the two most recent builds of an output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManifest(cmd, opts, func(store *bbolt.Store) error {
				return runManifestDiff(cmd, opts, store, args[0])
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManifest(cmd, opts, func(store *bbolt.Store) error {
				outputs, err := store.Outputs()
				if err != nil {
					return err
				}
				for _, o := range outputs {
					fmt.Fprintln(cmd.OutOrStdout(), o)
				}
				return nil
			})
		},
	}

	forgetCmd := &cobra.Command{
		Use:   "forget <output>",
		Short: "Delete every recorded build of an output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManifest(cmd, opts, func(store *bbolt.Store) error {
				output, err := outputKey(args[0])
				if err != nil {
					return err
				}
				if err := store.DeleteOutput(output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "⚡ forgot %s\n", output)
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{showCmd, historyCmd, diffCmd, listCmd, forgetCmd} {
		c.SilenceErrors = true
		c.SilenceUsage = true
		manifestCmd.AddCommand(c)
	}
	return manifestCmd
}

// withManifest opens the configured database read-write for the duration of fn.
func withManifest(cmd *cobra.Command, opts *rootOptions, fn func(*bbolt.Store) error) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	if cfg.Manifest == "" {
		return errNoManifest
	}
	store, err := openStore(cfg.Manifest, false)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// outputKey resolves output the way generation does, so relative and
// absolute spellings find the same records.
func outputKey(output string) (string, error) {
	paths, err := app.NewPaths(output)
	if err != nil {
		return "", err
	}
	return paths.Output, nil
}

func runManifestShow(cmd *cobra.Command, opts *rootOptions, store *bbolt.Store, output string) error {
	key, err := outputKey(output)
	if err != nil {
		return err
	}
	b, err := store.LatestBuild(key)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("no builds recorded for %s", key)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatBuild(b, useColor(opts)))
	return nil
}

func runManifestHistory(cmd *cobra.Command, opts *rootOptions, store *bbolt.Store, output string, limit int) error {
	key, err := outputKey(output)
	if err != nil {
		return err
	}
	builds, err := store.History(key, limit)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		return fmt.Errorf("no builds recorded for %s", key)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatHistory(key, builds, useColor(opts)))
	return nil
}

func runManifestDiff(cmd *cobra.Command, opts *rootOptions, store *bbolt.Store, output string) error {
	key, err := outputKey(output)
	if err != nil {
		return err
	}
	builds, err := store.History(key, 2)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		return fmt.Errorf("no builds recorded for %s", key)
	}

	next := builds[0]
	var prev *ports.Build
	if len(builds) > 1 {
		prev = builds[1]
	}
	fmt.Fprint(cmd.OutOrStdout(), formatDiff(prev, next, app.DiffBuilds(prev, next), useColor(opts)))
	return nil
}
