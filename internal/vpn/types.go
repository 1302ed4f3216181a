package vpn

import (
	"context"
	"errors"

	"github.com/PraveenPrabhuT/nvpn/internal/geoip"
	"github.com/PraveenPrabhuT/nvpn/internal/nordvpn"
)

var (
	ErrAlreadyRunning = errors.New("connection already running")
	ErrNotRunning     = errors.New("no process currently running")
	ErrConfigMissing  = errors.New("could not find server config")
	ErrNotRoot        = errors.New("must be run as root")
	// ErrInvalidServer is a usage error: the token is neither a country nor a server name.
	ErrInvalidServer = errors.New("invalid server name")
)

// Resolver picks servers from the provider's directory.
type Resolver interface {
	BestServer(ctx context.Context, country string, proto nordvpn.Protocol) (string, error)
	Countries(ctx context.Context, proto nordvpn.Protocol) ([]nordvpn.Country, error)
}

// GeoLocator reports the caller's public address.
type GeoLocator interface {
	Lookup(ctx context.Context) (geoip.Info, error)
}

// Updater refreshes the configuration bundle and returns the number of files written.
type Updater interface {
	Update(ctx context.Context) (int, error)
}

// Spawner starts the tunnel client detached and returns its PID.
type Spawner interface {
	Spawn(binary, configPath string) (int, error)
}

// Signaler asks a process to exit.
type Signaler interface {
	Terminate(pid int) error
}

// Prompter asks the operator for provider credentials.
type Prompter interface {
	Credentials() (username, password string, err error)
}

// Picker lets the operator choose a country.
type Picker interface {
	PickCountry(countries []nordvpn.Country) (nordvpn.Country, error)
}

// UpOptions configures an up run (server token, transport, interactive pick).
type UpOptions struct {
	Server   string
	Protocol nordvpn.Protocol
	Pick     bool
}

// TokenKind says how a server token on the command line is interpreted.
type TokenKind int

const (
	// TokenBest means no token: best server overall.
	TokenBest TokenKind = iota
	// TokenCountry is a bare country code such as "de".
	TokenCountry
	// TokenServer names one server such as "de123".
	TokenServer
)
