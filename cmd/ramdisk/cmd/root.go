package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/corey/ramdisk/internal/adapters/bbolt"
	"github.com/corey/ramdisk/internal/app"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	order      string
	escape     string
	word       string
	manifest   string
	color      string
	verbose    bool
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ramdisk <output> <root>",
		Short: "Embed a directory tree into an assembler source",
		Long: "Walks <root> and writes <output>: one .incbin block per file plus the\n" +
			"ramdisk_path_array, ramdisk_file_data_array and ramdisk_file_size_array tables and ramdisk_num.\n" +
			"Files whose names end in '~' are skipped.",
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args[0], args[1])
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Config file (default ./"+app.DefaultConfigFile+" if present)")
	f.StringVar(&opts.order, "order", "", "Traversal order: native, tree or path (default tree)")
	f.StringVar(&opts.escape, "escape", "", "Path literal policy: escape, reject or raw (default escape)")
	f.StringVar(&opts.word, "word", "", "Table directive, e.g. .word or .quad (default .word)")
	f.StringVar(&opts.manifest, "manifest", "", "bbolt database recording every build")
	f.StringVar(&opts.color, "color", "auto", "Colorize output: auto, always or never")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Print every embedded path and debug diagnostics")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress status lines")

	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newManifestCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func runGenerate(cmd *cobra.Command, opts *rootOptions, output, root string) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.Manifest, true)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	g := newGenerator(cmd, opts, cfg, store)
	res, err := g.Generate(output, root)
	if err != nil {
		return err
	}
	if cfg.Verbose && !opts.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), formatResult(res, useColor(opts)))
	}
	return nil
}

// resolveConfig loads the config file and applies flags set on the command line.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (app.Config, error) {
	cfg, err := app.LoadConfig(opts.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("order") {
		cfg.Order = opts.order
	}
	if flags.Changed("escape") {
		cfg.Escape = opts.escape
	}
	if flags.Changed("word") {
		cfg.Word = opts.word
	}
	if flags.Changed("manifest") {
		cfg.Manifest = opts.manifest
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	return cfg, cfg.Validate()
}

// openStore opens the manifest database. An empty path returns nil, nil.
// When create is false a missing database is an error.
func openStore(path string, create bool) (*bbolt.Store, error) {
	if path == "" {
		return nil, nil
	}
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}

	store, err := bbolt.NewStore(path)
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("%w\n%s", err, diagnoseDBLock(path))
		}
		return nil, err
	}
	return store, nil
}

// newGenerator wires status, logging and the optional store.
func newGenerator(cmd *cobra.Command, opts *rootOptions, cfg app.Config, store *bbolt.Store) *app.Generator {
	g := app.NewGenerator(cfg)
	g.Logger = app.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if !opts.quiet {
		g.Status = cmd.OutOrStdout()
	}
	if store != nil {
		g.Store = store
	}
	return g
}

func useColor(opts *rootOptions) bool {
	return resolveColor(opts.color)
}
