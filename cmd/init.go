package cmd

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Store NordVPN credentials and download server configurations",
	Long: `Init prompts for your NordVPN service credentials, writes them to the
credentials file readable only by root and then runs update.

When stdin is not a terminal the username and password are read from the
first two lines of input.`,
	Example: `  # Interactive
  nvpn init

  # Non-interactive
  printf '%s\n%s\n' "$NORD_USER" "$NORD_PASS" | nvpn init`,
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
		return ctl.Init(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
