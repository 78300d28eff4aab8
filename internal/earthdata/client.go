package earthdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/oauth2"
)

// NewHTTPClient returns a client for Earthdata protected downloads. A token is sent as a
// bearer header on every request; a login is sent as basic auth to the Earthdata host only.
// Both keep the session cookies set during the redirect through the login host.
func NewHTTPClient(ctx context.Context, creds Credentials, host string, timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	switch {
	case creds.HasToken():
		base := &http.Client{Timeout: timeout, Jar: jar}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: creds.Token,
			TokenType:   "Bearer",
		}))
		client.Jar = jar
		client.Timeout = timeout
		return client, nil
	case creds.HasLogin():
		return &http.Client{
			Timeout: timeout,
			Jar:     jar,
			Transport: &basicAuthTransport{
				base:     http.DefaultTransport,
				host:     host,
				username: creds.Username,
				password: creds.Password,
			},
		}, nil
	default:
		return nil, ErrNoCredentials
	}
}

type basicAuthTransport struct {
	base     http.RoundTripper
	host     string
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Hostname() != t.host {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(clone)
}
