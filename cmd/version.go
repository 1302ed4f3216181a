package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information of nvpn",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "nvpn version: %s\n", Version)
		fmt.Fprintf(out, "commit:       %s\n", Commit)
		fmt.Fprintf(out, "built at:     %s\n", Date)
		fmt.Fprintf(out, "go version:   %s\n", runtime.Version())
		fmt.Fprintf(out, "os/arch:      %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
