// Package nordvpn talks to the provider's public server directory.
package nordvpn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/go-resty/resty/v2"

	"github.com/PraveenPrabhuT/nvpn/internal/httpapi"
	"github.com/PraveenPrabhuT/nvpn/internal/logging"
)

const (
	actionRecommendations = "servers_recommendations"
	actionTechnologies    = "servers_technologies"
)

// ErrCountryNotFound is returned when the requested country code is not
// served over the requested protocol.
var ErrCountryNotFound = errors.New("country not found")

// Client queries the recommendation and technology endpoints. Every call
// hits the network; nothing is cached.
type Client struct {
	url  string
	http *resty.Client
	log  log.Interface
}

// New returns a client for the admin-ajax endpoint at url.
func New(url string, timeout time.Duration, logger log.Interface) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		url:  url,
		http: httpapi.NewClient(timeout, logger),
		log:  logger,
	}
}

// Recommendations returns the provider's current server recommendations,
// optionally restricted to a country id.
func (c *Client) Recommendations(ctx context.Context, countryID *int) ([]Server, error) {
	query := map[string]string{"action": actionRecommendations}
	if countryID != nil {
		filters, err := json.Marshal(map[string]int{"country_id": *countryID})
		if err != nil {
			return nil, err
		}
		query["filters"] = string(filters)
	}
	c.log.WithField("filters", query["filters"]).Debug("requesting recommendations")

	var servers []Server
	if err := httpapi.GetJSON(ctx, c.http, "recommendations", c.url, query, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// Technologies returns the technology listing with the countries serving each.
func (c *Client) Technologies(ctx context.Context) ([]Technology, error) {
	c.log.Debug("requesting technologies")

	var techs []Technology
	query := map[string]string{"action": actionTechnologies}
	if err := httpapi.GetJSON(ctx, c.http, "technologies", c.url, query, &techs); err != nil {
		return nil, err
	}
	return techs, nil
}

// Countries lists the countries offering OpenVPN over proto.
func (c *Client) Countries(ctx context.Context, proto Protocol) ([]Country, error) {
	techs, err := c.Technologies(ctx)
	if err != nil {
		return nil, err
	}
	for _, tech := range techs {
		if tech.Name == proto.TechnologyName() {
			return tech.Countries, nil
		}
	}
	return nil, httpapi.Malformed("technologies", fmt.Errorf("no %q entry", proto.TechnologyName()))
}

// CountryID maps a two-letter country code (any case) to the provider's id.
func (c *Client) CountryID(ctx context.Context, code string, proto Protocol) (int, error) {
	countries, err := c.Countries(ctx, proto)
	if err != nil {
		return 0, err
	}
	for _, cnt := range countries {
		if strings.EqualFold(cnt.Code, code) {
			return cnt.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrCountryNotFound, code)
}

// BestServer returns the short name ("de123") of the first recommended
// server, in country when one is given.
func (c *Client) BestServer(ctx context.Context, country string, proto Protocol) (string, error) {
	var filter *int
	if country != "" {
		id, err := c.CountryID(ctx, country, proto)
		if err != nil {
			return "", err
		}
		filter = &id
	}

	servers, err := c.Recommendations(ctx, filter)
	if err != nil {
		return "", err
	}
	if len(servers) == 0 {
		return "", httpapi.Empty("recommendations")
	}
	if servers[0].Hostname == "" {
		return "", httpapi.Malformed("recommendations", errors.New("first server has no hostname"))
	}

	name := ServerName(servers[0].Hostname)
	c.log.WithField("hostname", servers[0].Hostname).Debugf("resolved server %s", name)
	return name, nil
}
