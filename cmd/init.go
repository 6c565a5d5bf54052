package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beejak/MCP-Sentinel/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool
	var path string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.LocalFileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().StringVar(&path, "path", config.LocalFileName, "Where to write the config file")
	return cmd
}
