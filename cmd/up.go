package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/PraveenPrabhuT/nvpn/internal/nordvpn"
	"github.com/PraveenPrabhuT/nvpn/internal/vpn"
)

var upTCP, upUDP, upPick bool

var upCmd = &cobra.Command{
	Use:   "up [server]",
	Short: "Connect to a NordVPN server",
	Long: `Up resolves a server, patches its OpenVPN configuration to read the stored
credentials and starts openvpn in the background.

The optional argument is either a server name such as de123, used as is,
or a country code such as de, in which case the provider's recommended server
for that country is used. Without an argument the best server overall is used.`,
	Example: `  # Best server overall over UDP
  nvpn up

  # Best German server over TCP
  nvpn up de --tcp

  # A specific server
  nvpn up uk1844

  # Choose the country interactively
  nvpn up -p`,
	Annotations: map[string]string{annotationPrivileged: "true"},
	Args:        positional(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if helpRequested(args) {
			return cmd.Help()
		}

		proto, err := protocolFlag(upTCP, upUDP)
		if err != nil {
			return err
		}
		opts := vpn.UpOptions{Protocol: proto, Pick: upPick}
		if len(args) == 1 {
			opts.Server = args[0]
		}
		kind, _, err := vpn.ParseServerToken(opts.Server)
		if err != nil {
			return usageError{err}
		}
		if opts.Pick && kind != vpn.TokenBest {
			return usageError{errors.New("--pick cannot be combined with a server argument")}
		}

		ctl, err := controller(cmd)
		if err != nil {
			return err
		}
		return ctl.Up(cmd.Context(), opts)
	},
}

// protocolFlag maps --tcp/--udp to a protocol. UDP is the default.
func protocolFlag(tcp, udp bool) (nordvpn.Protocol, error) {
	switch {
	case tcp && udp:
		return "", usageError{errors.New("--tcp and --udp cannot be used together")}
	case tcp:
		return nordvpn.TCP, nil
	default:
		return nordvpn.UDP, nil
	}
}

func init() {
	upCmd.Flags().BoolVarP(&upTCP, "tcp", "t", false, "Connect over TCP")
	upCmd.Flags().BoolVarP(&upUDP, "udp", "u", false, "Connect over UDP (default)")
	upCmd.Flags().BoolVarP(&upPick, "pick", "p", false, "Pick the country interactively")

	upCmd.ValidArgsFunction = func(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ctl, err := controller(c)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		proto, err := protocolFlag(upTCP, upUDP)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		countries, err := ctl.Resolver.Countries(c.Context(), proto)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return vpn.CountryCompletions(countries, toComplete), cobra.ShellCompDirectiveNoFileComp
	}

	rootCmd.AddCommand(upCmd)
}
