package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when neither --config nor NVPN_CONFIG is set. It may be absent.
const DefaultPath = "/etc/nvpn/config.yaml"

// EnvPath overrides DefaultPath.
const EnvPath = "NVPN_CONFIG"

// Config holds the paths, binaries and endpoints nvpn works with.
type Config struct {
	PIDFile         string        `yaml:"pid_file"`
	ConfigRoot      string        `yaml:"config_root"`
	CredentialsFile string        `yaml:"credentials_file"`
	ClientBinary    string        `yaml:"client_binary"`
	ClientLog       string        `yaml:"client_log"`
	APIURL          string        `yaml:"api_url"`
	GeoIPURL        string        `yaml:"geoip_url"`
	BundleURL       string        `yaml:"bundle_url"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// Default returns the stock layout used by the openvpn package on most distributions.
func Default() Config {
	return Config{
		PIDFile:         "/run/nvpn.pid",
		ConfigRoot:      "/etc/openvpn",
		CredentialsFile: "/etc/openvpn/login.conf",
		ClientBinary:    "openvpn",
		APIURL:          "https://nordvpn.com/wp-admin/admin-ajax.php",
		GeoIPURL:        "http://ifconfig.co/json",
		BundleURL:       "https://downloads.nordcdn.com/configs/archives/servers/ovpn.zip",
		HTTPTimeout:     30 * time.Second,
		DownloadTimeout: 5 * time.Minute,
	}
}

// Path picks the config file location. The boolean reports whether the
// caller asked for it explicitly, in which case it must exist.
func Path(flag string) (string, bool) {
	if flag != "" {
		return flag, true
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p, true
	}
	return DefaultPath, false
}

// Load reads path over the defaults. A missing file is only an error when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings that would leave a command without a target.
func (c Config) Validate() error {
	switch {
	case c.PIDFile == "":
		return errors.New("pid_file must be set")
	case c.ConfigRoot == "":
		return errors.New("config_root must be set")
	case c.CredentialsFile == "":
		return errors.New("credentials_file must be set")
	case c.ClientBinary == "":
		return errors.New("client_binary must be set")
	case c.HTTPTimeout <= 0:
		return errors.New("http_timeout must be positive")
	case c.DownloadTimeout <= 0:
		return errors.New("download_timeout must be positive")
	}
	if !filepath.IsAbs(c.CredentialsFile) {
		return fmt.Errorf("credentials_file %q must be absolute", c.CredentialsFile)
	}
	return nil
}
