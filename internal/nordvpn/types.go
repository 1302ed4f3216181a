package nordvpn

import (
	"fmt"
	"strings"
)

// Protocol is the OpenVPN transport a server config is built for.
type Protocol string

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

// ParseProtocol accepts tcp or udp in any case.
func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(s)); p {
	case TCP, UDP:
		return p, nil
	}
	return "", fmt.Errorf("unknown protocol %q", s)
}

// Upper is the token used in technology names ("OpenVPN UDP").
func (p Protocol) Upper() string { return strings.ToUpper(string(p)) }

// TechnologyName is the listing entry that carries the countries serving p.
func (p Protocol) TechnologyName() string { return "OpenVPN " + p.Upper() }

// Server is one entry of the recommendations listing.
type Server struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Hostname string  `json:"hostname"`
	Load     float64 `json:"load"`
}

// Technology is one entry of the technologies listing.
type Technology struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Identifier string    `json:"identifier"`
	Countries  []Country `json:"countries"`
}

// Country is a provider country as listed under a technology.
type Country struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// ServerName strips the domain from a hostname: "de123.nordvpn.com" -> "de123".
func ServerName(hostname string) string {
	name, _, _ := strings.Cut(hostname, ".")
	return name
}
