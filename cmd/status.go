package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show whether the client is running and the current public IP",
	Annotations: map[string]string{annotationPrivileged: "true"},
	Args:        positional(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if helpRequested(args) {
			return cmd.Help()
		}
		ctl, err := controller(cmd)
		if err != nil {
			return err
		}
		return ctl.Status(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
