package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestAuthChallengeAndRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if r.Header.Get("Authorization") == "" {
			w.Header().Set("WWW-Authenticate", `Digest realm="wbem", nonce="abc123", qop="auth"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewDigestAuth(Credentials{Username: "fritz", Password: "town"})
	require.Equal(t, "Digest", a.Name())

	client := &http.Client{Transport: a.Transport(http.DefaultTransport)}
	resp, err := client.Post(srv.URL, "application/xml", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, attempts)
}

func TestParseDigestChallenge(t *testing.T) {
	c := parseDigestChallenge(`Digest realm="wbem", nonce="n1", opaque="o1", qop="auth,auth-int"`)
	require.NotNil(t, c)
	require.Equal(t, "wbem", c.realm)
	require.Equal(t, "n1", c.nonce)
	require.Equal(t, "o1", c.opaque)
	require.Equal(t, "auth", c.qop)

	require.Nil(t, parseDigestChallenge("Basic realm=\"wbem\""))
}
