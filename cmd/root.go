package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/PraveenPrabhuT/nvpn/internal/config"
	"github.com/PraveenPrabhuT/nvpn/internal/logging"
	"github.com/PraveenPrabhuT/nvpn/internal/vpn"
)

var configFile string
var verbose bool

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// annotationPrivileged marks commands that touch the tunnel or its files.
const annotationPrivileged = "nvpn/privileged"

// Replaced in tests.
var (
	newController   = vpn.New
	checkPrivileges = vpn.CheckPrivileges
)

var rootCmd = &cobra.Command{
	Use:   "nvpn",
	Short: "Bring a NordVPN OpenVPN tunnel up and down from the command line",
	Long: `nvpn picks a NordVPN server, points its OpenVPN configuration at your
stored credentials and starts openvpn in the background. The running client
is tracked through a PID file so it can be stopped and inspected later.`,
	Version:       Version, // This enables the 'nvpn --version' flag automatically
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[annotationPrivileged] == "" || helpRequested(args) {
			return nil
		}
		return checkPrivileges()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return usageError{errors.New("no command given")}
		}
		return usageError{fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())}
	},
}

// usageError is an invocation mistake; Execute prints the command's usage for it.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, vpn.ErrNotRoot):
		return 255
	default:
		return 1
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	rootCmd.SetVersionTemplate(fmt.Sprintf("nvpn version %s (commit: %s, built: %s)\n", Version, Commit, Date))
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)

	c, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	var uerr usageError
	if errors.As(err, &uerr) {
		fmt.Fprint(c.ErrOrStderr(), c.UsageString())
	}
	color.New(color.FgRed).Fprintf(c.ErrOrStderr(), "❌ %v\n", err)
	return exitCode(err)
}

// controller loads the configuration and builds the controller for one command run.
func controller(cmd *cobra.Command) (*vpn.Controller, error) {
	path, explicit := config.Path(configFile)
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), verbose)
	logger.WithField("config", path).Debug("configuration loaded")
	return newController(cfg, logger, cmd.OutOrStdout()), nil
}

// positional turns argument violations into usage errors and always lets a
// lone "help" argument through.
func positional(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if helpRequested(args) {
			return nil
		}
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func helpRequested(args []string) bool {
	return len(args) == 1 && args[0] == "help"
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API calls, paths and PIDs")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
}
