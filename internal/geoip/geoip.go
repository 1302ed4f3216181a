// Package geoip looks up the caller's public address and its location.
package geoip

import (
	"context"
	"errors"
	"time"

	"github.com/apex/log"
	"github.com/go-resty/resty/v2"

	"github.com/PraveenPrabhuT/nvpn/internal/httpapi"
	"github.com/PraveenPrabhuT/nvpn/internal/logging"
)

// Info is what the lookup service reports. City is empty when unknown.
type Info struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// Client queries an ifconfig.co compatible JSON endpoint.
type Client struct {
	url  string
	http *resty.Client
	log  log.Interface
}

// New returns a client for url.
func New(url string, timeout time.Duration, logger log.Interface) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{url: url, http: httpapi.NewClient(timeout, logger), log: logger}
}

// Lookup fetches the current public IP and location.
func (c *Client) Lookup(ctx context.Context) (Info, error) {
	c.log.WithField("url", c.url).Debug("looking up public address")

	var info Info
	if err := httpapi.GetJSON(ctx, c.http, "geoip", c.url, nil, &info); err != nil {
		return Info{}, err
	}
	if info.IP == "" {
		return Info{}, httpapi.Malformed("geoip", errors.New("response has no ip"))
	}
	return info, nil
}
