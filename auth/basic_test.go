package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestBasicAuthSetsAuthorizationHeader(t *testing.T) {
	var gotHeader string
	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotHeader = req.Header.Get("Authorization")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})

	a := NewBasicAuth(Credentials{Username: "fritz", Password: "town"})
	require.Equal(t, "Basic", a.Name())

	rt := a.Transport(base)
	req := httptest.NewRequest(http.MethodPost, "https://cimom.example/cimom", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, "Basic ZnJpdHo6dG93bg==", gotHeader)
}
