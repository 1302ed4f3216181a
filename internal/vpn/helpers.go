package vpn

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/PraveenPrabhuT/nvpn/internal/nordvpn"
)

var (
	serverToken  = regexp.MustCompile(`^[a-z]+[0-9]+$`)
	countryToken = regexp.MustCompile(`^[a-z]+$`)
)

// ParseServerToken classifies the optional argument to up. Tokens are
// compared in lower case.
func ParseServerToken(token string) (TokenKind, string, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	switch {
	case t == "":
		return TokenBest, "", nil
	case serverToken.MatchString(t):
		return TokenServer, t, nil
	case countryToken.MatchString(t):
		return TokenCountry, t, nil
	}
	return 0, "", fmt.Errorf("%w %q: want a country code (de) or a server (de123)", ErrInvalidServer, token)
}

// FuzzyPicker selects a country with an interactive fuzzy finder.
type FuzzyPicker struct{}

func (FuzzyPicker) PickCountry(countries []nordvpn.Country) (nordvpn.Country, error) {
	idx, err := fuzzyfinder.Find(
		countries,
		func(i int) string {
			return fmt.Sprintf("%-4s | %s", strings.ToLower(countries[i].Code), countries[i].Name)
		},
		fuzzyfinder.WithHeader("Select country"),
	)
	if err != nil {
		return nordvpn.Country{}, err
	}
	return countries[idx], nil
}

func (c *Controller) pickCountry(ctx context.Context, proto nordvpn.Protocol) (string, error) {
	countries, err := c.Resolver.Countries(ctx, proto)
	if err != nil {
		return "", fmt.Errorf("list countries: %w", err)
	}
	if len(countries) == 0 {
		return "", fmt.Errorf("no countries offer OpenVPN over %s", proto.Upper())
	}
	sortCountries(countries)
	picked, err := c.Picker.PickCountry(countries)
	if err != nil {
		return "", fmt.Errorf("selection: %w", err)
	}
	return strings.ToLower(picked.Code), nil
}

func sortCountries(countries []nordvpn.Country) {
	sort.Slice(countries, func(i, j int) bool {
		return strings.ToLower(countries[i].Code) < strings.ToLower(countries[j].Code)
	})
}

// CountryCompletions returns "code\tname" shell completions for the codes
// starting with prefix.
func CountryCompletions(countries []nordvpn.Country, prefix string) []string {
	sortCountries(countries)
	prefix = strings.ToLower(prefix)

	var completions []string
	for _, cnt := range countries {
		code := strings.ToLower(cnt.Code)
		if strings.HasPrefix(code, prefix) {
			completions = append(completions, fmt.Sprintf("%s\t%s", code, cnt.Name))
		}
	}
	return completions
}

func printCountries(w io.Writer, countries []nordvpn.Country) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	color.New(color.Bold).Fprintln(tw, "CODE\tCOUNTRY\tID")
	for _, cnt := range countries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", strings.ToLower(cnt.Code), cnt.Name, cnt.ID)
	}
	return tw.Flush()
}
