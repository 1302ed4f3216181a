package cmd

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the latest server configurations",
	Long: `Update downloads NordVPN's archive of OpenVPN configurations and extracts it
into the config root, overwriting existing files.`,
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
		return ctl.Update(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
