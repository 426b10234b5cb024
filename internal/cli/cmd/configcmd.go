package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"parley/internal/cli/config"
)

func newConfigCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the parleyctl config file",
	}

	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to a config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dest := path
			if dest == "" {
				dest = o.configPath
			}
			if dest == "" {
				dest = config.DefaultPath()
			}
			if dest == "" {
				return fmt.Errorf("no config path: pass --path")
			}
			cfg := &config.Config{DBPath: o.dbPath, Output: o.output, Limit: o.limit}
			if err := config.SaveToFile(cfg, dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", dest)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "destination file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), config.Config{DBPath: o.dbPath, Output: o.output, Limit: o.limit})
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
