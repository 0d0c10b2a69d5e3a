package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"haunted-house/haunted"
	"haunted-house/window"
)

type options struct {
	variant    string
	seed       uint64
	timeScale  float64
	config     string
	textures   string
	tune       string
	width      int
	height     int
	fullscreen bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	defaults := window.DefaultWindowConfig()

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Open the window and render a variant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(opts.verbose)
			return run(cmd.Context(), opts)
		},
	}
	flags := runCmd.Flags()
	flags.StringVar(&opts.variant, "variant", "shadows", "scene variant to render")
	flags.Uint64Var(&opts.seed, "seed", 1, "graveyard placement seed (0 picks a new layout every run)")
	flags.Float64Var(&opts.timeScale, "time-scale", 1, "speed of the ghost orbits")
	flags.StringVar(&opts.config, "config", "", "TOML file adding or overriding variants")
	flags.StringVar(&opts.textures, "textures", "textures", "texture root directory")
	flags.StringVar(&opts.tune, "tune", "", "TOML parameter file watched for live changes")
	flags.IntVar(&opts.width, "width", defaults.Width, "window width")
	flags.IntVar(&opts.height, "height", defaults.Height, "window height")
	flags.BoolVar(&opts.fullscreen, "fullscreen", false, "start fullscreen")
	flags.BoolVar(&opts.verbose, "verbose", false, "log at debug level")

	variants := &cobra.Command{
		Use:   "variants",
		Short: "List the available scene variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(opts.config)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range catalog.Names() {
				v, _ := catalog.Lookup(name)
				fmt.Fprintf(out, "%-10s %s\n", name, v.Description)
			}
			return nil
		},
	}
	variants.Flags().StringVar(&opts.config, "config", "", "TOML file adding or overriding variants")

	root := &cobra.Command{
		Use:           "hauntedhouse",
		Short:         "Render a haunted house at night",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCmd.RunE,
	}
	root.Flags().AddFlagSet(flags)
	root.AddCommand(runCmd, variants)
	return root
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadCatalog(path string) (*haunted.Catalog, error) {
	catalog, err := haunted.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := catalog.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}
