package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  exactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hitreq version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s (%s %s/%s)\n", buildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
