// Package vpn implements the nvpn commands: bringing the tunnel up and down,
// refreshing server configurations and reporting status.
package vpn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/apex/log"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/PraveenPrabhuT/nvpn/internal/bundle"
	"github.com/PraveenPrabhuT/nvpn/internal/config"
	"github.com/PraveenPrabhuT/nvpn/internal/geoip"
	"github.com/PraveenPrabhuT/nvpn/internal/nordvpn"
	"github.com/PraveenPrabhuT/nvpn/internal/ovpn"
	"github.com/PraveenPrabhuT/nvpn/internal/pidfile"
)

// Controller runs the commands against one configuration. Every field is
// replaceable so the commands can run without root, network or openvpn.
type Controller struct {
	Config   config.Config
	PIDs     *pidfile.Store
	Finder   pidfile.ProcessFinder
	Resolver Resolver
	Geo      GeoLocator
	Updater  Updater
	Spawner  Spawner
	Signaler Signaler
	Prompter Prompter
	Picker   Picker
	Out      io.Writer
	Log      log.Interface
}

// New wires a Controller to the real provider API, process table and terminal.
func New(cfg config.Config, logger log.Interface, out io.Writer) *Controller {
	updater := bundle.New(cfg.BundleURL, cfg.ConfigRoot, cfg.DownloadTimeout, logger)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		updater.Progress = os.Stderr
	}

	return &Controller{
		Config:   cfg,
		PIDs:     &pidfile.Store{Path: cfg.PIDFile},
		Finder:   pidfile.PSFinder{},
		Resolver: nordvpn.New(cfg.APIURL, cfg.HTTPTimeout, logger),
		Geo:      geoip.New(cfg.GeoIPURL, cfg.HTTPTimeout, logger),
		Updater:  updater,
		Spawner:  ExecSpawner{LogPath: cfg.ClientLog},
		Signaler: UnixSignaler{},
		Prompter: NewTerminalPrompter(os.Stdin, out),
		Picker:   FuzzyPicker{},
		Out:      out,
		Log:      logger,
	}
}

// RunningPID returns the PID of the live tunnel client or pidfile.NotRunning.
func (c *Controller) RunningPID() (int, error) {
	return c.PIDs.Running(c.Finder, c.Config.ClientBinary)
}

// Up resolves a server, points its configuration at the credentials file and
// starts the client detached. The PID file is only written once the client
// has been started.
func (c *Controller) Up(ctx context.Context, opts UpOptions) error {
	pid, err := c.RunningPID()
	if err != nil {
		return err
	}
	if pid != pidfile.NotRunning {
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
	}

	server, err := c.resolveServer(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "🔍 Requesting connection to %s\n", server)

	path := ovpn.ConfigPath(c.Config.ConfigRoot, server, string(opts.Protocol))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w %s (%s); try 'nvpn update'", ErrConfigMissing, server, opts.Protocol.Upper())
		}
		return err
	}
	c.Log.WithField("path", path).Debug("using server config")

	file, err := ovpn.PatchAuthFile(path, c.Config.CredentialsFile)
	if err != nil {
		return err
	}
	if host, port, ok := file.Remote(); ok {
		fmt.Fprintf(c.Out, "🌐 Endpoint: %s %s/%s\n", host, port, opts.Protocol)
	}

	pid, err = c.Spawner.Spawn(c.Config.ClientBinary, path)
	if err != nil {
		return fmt.Errorf("start %s: %w", c.Config.ClientBinary, err)
	}
	if err := c.PIDs.Save(pid); err != nil {
		// An unrecorded client cannot be stopped by down.
		_ = c.Signaler.Terminate(pid)
		return err
	}
	c.Log.WithField("pid", pid).Debug("client started")

	color.New(color.FgGreen).Fprintf(c.Out, "✅ %s started (PID %d)\n", c.Config.ClientBinary, pid)
	return nil
}

func (c *Controller) resolveServer(ctx context.Context, opts UpOptions) (string, error) {
	kind, token, err := ParseServerToken(opts.Server)
	if err != nil {
		return "", err
	}

	switch kind {
	case TokenServer:
		return token, nil
	case TokenCountry:
		return c.bestServer(ctx, token, opts.Protocol)
	}

	country := ""
	if opts.Pick {
		if country, err = c.pickCountry(ctx, opts.Protocol); err != nil {
			return "", err
		}
	}
	return c.bestServer(ctx, country, opts.Protocol)
}

func (c *Controller) bestServer(ctx context.Context, country string, proto nordvpn.Protocol) (string, error) {
	server, err := c.Resolver.BestServer(ctx, country, proto)
	if err != nil {
		if errors.Is(err, nordvpn.ErrCountryNotFound) {
			return "", fmt.Errorf("could not find country %s: %w", country, err)
		}
		return "", fmt.Errorf("resolve server: %w", err)
	}
	return server, nil
}

// Down sends SIGTERM to the running client and removes the PID file. It does
// not wait for the client to exit.
func (c *Controller) Down(ctx context.Context) error {
	pid, err := c.RunningPID()
	if err != nil {
		return err
	}
	if pid == pidfile.NotRunning {
		return ErrNotRunning
	}

	if err := c.Signaler.Terminate(pid); err != nil {
		return fmt.Errorf("terminate PID %d: %w", pid, err)
	}
	if err := c.PIDs.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "🛑 Stopped %s (PID %d)\n", c.Config.ClientBinary, pid)
	return nil
}

// Update replaces the server configurations with a fresh bundle.
func (c *Controller) Update(ctx context.Context) error {
	n, err := c.Updater.Update(ctx)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	color.New(color.FgGreen).Fprintf(c.Out, "✅ Extracted %d server configs into %s\n", n, c.Config.ConfigRoot)
	return nil
}

// Status prints whether the client is running and, independently, the
// current public address.
func (c *Controller) Status(ctx context.Context) error {
	pid, err := c.RunningPID()
	if err != nil {
		return err
	}
	if pid == pidfile.NotRunning {
		color.New(color.FgYellow).Fprintln(c.Out, "No process currently running.")
	} else {
		color.New(color.FgGreen).Fprintf(c.Out, "PID: %d\n", pid)
	}

	info, err := c.Geo.Lookup(ctx)
	if err != nil {
		return fmt.Errorf("lookup public address: %w", err)
	}
	fmt.Fprintf(c.Out, "Current IP:   %s\n", info.IP)
	fmt.Fprintf(c.Out, "Country:      %s\n", info.Country)
	if info.City != "" {
		fmt.Fprintf(c.Out, "Approx. City: %s\n", info.City)
	}
	return nil
}

// Init stores new credentials and then refreshes the bundle.
func (c *Controller) Init(ctx context.Context) error {
	user, pass, err := c.Prompter.Credentials()
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	if err := ovpn.WriteCredentials(c.Config.CredentialsFile, user, pass); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "🔐 Credentials saved to %s\n", c.Config.CredentialsFile)
	return c.Update(ctx)
}

// Countries prints the countries offering OpenVPN over proto.
func (c *Controller) Countries(ctx context.Context, proto nordvpn.Protocol) error {
	countries, err := c.Resolver.Countries(ctx, proto)
	if err != nil {
		return fmt.Errorf("list countries: %w", err)
	}
	sortCountries(countries)
	return printCountries(c.Out, countries)
}
