// Package httpapi is the small JSON-over-HTTP layer shared by the provider
// and geolocation clients. It turns every failure into an *Error that says
// whether the network, the payload or the result set was at fault.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/go-resty/resty/v2"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindNetwork covers transport errors and non-2xx responses.
	KindNetwork Kind = iota + 1
	// KindMalformed means the body could not be decoded or lacked a required field.
	KindMalformed
	// KindEmpty means the call succeeded but returned no usable entries.
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network failure"
	case KindMalformed:
		return "malformed response"
	case KindEmpty:
		return "empty result"
	}
	return "unknown failure"
}

// Error is returned by every call in this package and by the clients built on it.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// Empty builds a KindEmpty error for op.
func Empty(op string) error {
	return &Error{Op: op, Kind: KindEmpty}
}

// Malformed builds a KindMalformed error for op.
func Malformed(op string, err error) error {
	return &Error{Op: op, Kind: KindMalformed, Err: err}
}

// NewClient returns a resty client with a hard per-request timeout.
func NewClient(timeout time.Duration, logger log.Interface) *resty.Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "nvpn")
	if logger != nil {
		c.SetLogger(logger)
	}
	return c
}

// GetJSON issues a GET against url with the given query parameters and decodes the body into out.
func GetJSON(ctx context.Context, c *resty.Client, op, url string, query map[string]string, out any) error {
	resp, err := c.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(url)
	if err != nil {
		return &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	if resp.IsError() {
		return &Error{Op: op, Kind: KindNetwork, Err: fmt.Errorf("unexpected status %s", resp.Status())}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return Malformed(op, err)
	}
	return nil
}
