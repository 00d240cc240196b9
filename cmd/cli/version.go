package cli

import (
	"fmt"

	"github.com/parkinsight/parkinsight/internal/version"
	"github.com/spf13/cobra"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			fmt.Printf("parkinsight %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
			if info.GitCommit != "" {
				fmt.Printf("commit: %s\n", info.GitCommit)
			}
		},
	}
}
