package auth

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"sync"
)

// BasicAuth implements HTTP Basic authentication, the default scheme.
type BasicAuth struct {
	creds Credentials
}

// NewBasicAuth constructs a BasicAuth authenticator.
func NewBasicAuth(creds Credentials) *BasicAuth { return &BasicAuth{creds: creds} }

func (a *BasicAuth) Name() string { return "Basic" }

func (a *BasicAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return &basicRoundTripper{base: base, creds: a.creds}
}

type basicRoundTripper struct {
	base     http.RoundTripper
	creds    Credentials
	warnOnce sync.Once
}

func (t *basicRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		t.warnOnce.Do(func() {
			slog.Default().Warn("basic auth over non-HTTPS connection; credentials are not encrypted", "host", req.URL.Host)
		})
	}
	clone := req.Clone(req.Context())
	encoded := base64.StdEncoding.EncodeToString([]byte(t.creds.Username + ":" + t.creds.Password))
	clone.Header.Set("Authorization", "Basic "+encoded)
	return t.base.RoundTrip(clone)
}
