package main

import (
	"github.com/spf13/cobra"

	"packreg/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "packreg",
		Short: "Packreg is a package registry server with a deduplicated blob store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureDefaultLogger(logLevel, cfg.LogLevel)
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newGCCmd(cfg),
		newHashTokenCmd(),
		newConfigCmd(cfg),
	)

	return cmd
}
