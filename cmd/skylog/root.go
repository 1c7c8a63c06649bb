package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/skylog/internal/config"
	"github.com/MrSnakeDoc/skylog/internal/logger"
)

type rootOptions struct {
	verbose bool
}

// env loads the configuration and a logger honouring --verbose.
func (o *rootOptions) env() (*config.Config, logger.Logger) {
	cfg := config.Load()
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "skylog",
		Short: "A log book for deep-sky observations",
		Long: `skylog records photos of the night sky against the Messier catalogue.
Without a subcommand it runs the web service (same as "skylog serve").
Configuration is read from SKYLOG_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newCatalogueCmd(opts),
		newObservationsCmd(opts),
		newVersionCmd(),
	)
	return root
}
