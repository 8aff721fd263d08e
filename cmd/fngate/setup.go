package main

import (
	"fmt"

	"fngate/internal/config"

	"github.com/spf13/cobra"
)

var setupForce bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a default fngate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.Path()
		if err := config.Save(path, config.Default(), setupForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVarP(&setupForce, "force", "f", false, "overwrite an existing config file")
}
