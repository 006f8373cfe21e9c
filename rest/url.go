// Package rest holds the building blocks shared by the exchange protocol
// clients: request URL assembly, HMAC signing and nonce generation.
package rest

import (
	"context"
	"net/http"
	"strings"
)

// URL assembles an exchange request from a base URL, an ordered list of
// literal query parameters and a header map. Parameters are opaque,
// pre-encoded "key=value" strings and are never re-encoded; their insertion
// order is preserved because some exchanges fold the signature over the
// exact rendered string.
type URL struct {
	base       string
	method     string
	parameters []string
	headers    map[string]string
}

func NewURL(base string) *URL {
	return &URL{
		base:    base,
		method:  http.MethodGet,
		headers: make(map[string]string),
	}
}

func (u *URL) WithMethod(method string) *URL {
	u.method = method
	return u
}

func (u *URL) AddParameter(parameter string) *URL {
	u.parameters = append(u.parameters, parameter)
	return u
}

func (u *URL) AddHeader(name, value string) *URL {
	u.headers[name] = value
	return u
}

// Query renders just the query string, parameters joined with "&" in
// insertion order.
func (u *URL) Query() string {
	return strings.Join(u.parameters, "&")
}

// Render concatenates the base URL and the query string.
func (u *URL) Render() string {
	if len(u.parameters) == 0 {
		return u.base
	}

	separator := "?"
	if strings.Contains(u.base, "?") {
		separator = "&"
	}

	return u.base + separator + u.Query()
}

// NewRequest materializes the URL into an HTTP request carrying the
// accumulated headers.
func (u *URL) NewRequest(ctx context.Context) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, u.method, u.Render(), nil)
	if err != nil {
		return nil, err
	}

	for name, value := range u.headers {
		request.Header.Set(name, value)
	}

	return request, nil
}
