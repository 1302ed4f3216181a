package cmd

import (
	"github.com/spf13/cobra"
)

var countriesTCP, countriesUDP bool

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries with OpenVPN servers",
	Example: `  # Countries reachable over TCP
  nvpn countries --tcp`,
	Args: positional(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if helpRequested(args) {
			return cmd.Help()
		}
		proto, err := protocolFlag(countriesTCP, countriesUDP)
		if err != nil {
			return err
		}
		ctl, err := controller(cmd)
		if err != nil {
			return err
		}
		return ctl.Countries(cmd.Context(), proto)
	},
}

func init() {
	countriesCmd.Flags().BoolVarP(&countriesTCP, "tcp", "t", false, "List countries serving TCP")
	countriesCmd.Flags().BoolVarP(&countriesUDP, "udp", "u", false, "List countries serving UDP (default)")
	rootCmd.AddCommand(countriesCmd)
}
