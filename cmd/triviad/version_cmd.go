package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unicitynetwork/triviad/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the triviad version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Module(), version.Current())
			return nil
		},
	}
}
