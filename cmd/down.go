package cmd

import (
	"github.com/spf13/cobra"
)

var downCmd = &cobra.Command{
	Use:         "down",
	Short:       "Stop the running OpenVPN client",
	Long:        `Down sends SIGTERM to the client recorded in the PID file and removes the file. It does not wait for the client to exit.`,
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
		return ctl.Down(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(downCmd)
}
