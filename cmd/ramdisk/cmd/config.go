package cmd

import (
	"fmt"
	"os"

	"github.com/corey/ramdisk/internal/app"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "config",
		Short:         "Show the effective configuration",
		Long:          "Shows the settings a generation would use after merging the config file and flags.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, opts)
		},
	}
}

func runConfig(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	source := "(defaults)"
	switch {
	case opts.configPath != "":
		source = opts.configPath
	default:
		if _, err := os.Stat(app.DefaultConfigFile); err == nil {
			source = app.DefaultConfigFile
		}
	}
	manifest := cfg.Manifest
	if manifest == "" {
		manifest = "(disabled)"
	}

	p := palette(useColor(opts))
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s⚡ ramdisk config%s\n", p.c(colorBold), p.c(colorReset))
	fmt.Fprintf(out, "  File:       %s\n", source)
	fmt.Fprintf(out, "  Order:      %s\n", cfg.Order)
	fmt.Fprintf(out, "  Escape:     %s\n", cfg.Escape)
	fmt.Fprintf(out, "  Word:       %s\n", cfg.Word)
	fmt.Fprintf(out, "  Exclude:    *%s\n", cfg.ExcludeSuffix)
	fmt.Fprintf(out, "  Manifest:   %s\n", manifest)
	fmt.Fprintf(out, "  Verbose:    %t\n", cfg.Verbose)
	return nil
}
