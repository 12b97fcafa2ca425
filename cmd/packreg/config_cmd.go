package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"packreg/internal/config"
)

func newConfigCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get and set configuration values",
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := cfg.Get(args[0])
			if err != nil {
				return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.AllowedKeys(), ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one config value in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GlobalPath()
			if err != nil {
				return err
			}
			if err := config.SetKey(path, args[0], args[1]); err != nil {
				return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.AllowedKeys(), ", "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "set %s in %s\n", args[0], path)
			return nil
		},
	}

	cmd.AddCommand(getCmd, setCmd)
	return cmd
}
