package auth

import (
	"errors"
	"net/http"
)

// Authenticator wraps an http.RoundTripper with a credential-injection
// scheme.
type Authenticator interface {
	// Transport wraps base with this scheme's authentication logic.
	Transport(base http.RoundTripper) http.RoundTripper
	// Name returns the authentication scheme name (e.g. "Basic", "Digest").
	Name() string
}

// Credentials holds a username/password pair. Domain is not carried:
// CIM-XML Basic/Digest auth has no domain concept.
type Credentials struct {
	Username string
	Password string
}

// Validate checks that both fields are populated.
func (c Credentials) Validate() error {
	if c.Username == "" {
		return errors.New("auth: username is required")
	}
	if c.Password == "" {
		return errors.New("auth: password is required")
	}
	return nil
}
