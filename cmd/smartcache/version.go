package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version 在构建时通过 -ldflags "-X main.version=..." 覆盖。
var version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smartcache v%s\n", version)
		},
	}
}
