package auth

import (
	"bytes"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// DigestAuth implements RFC 2617 HTTP Digest authentication, accepted by a
// CIMOM that challenges with a WWW-Authenticate: Digest header. It buffers
// the request body and resends it once a challenge is observed.
type DigestAuth struct {
	creds Credentials
}

// NewDigestAuth constructs a DigestAuth authenticator.
func NewDigestAuth(creds Credentials) *DigestAuth { return &DigestAuth{creds: creds} }

func (a *DigestAuth) Name() string { return "Digest" }

func (a *DigestAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return &digestRoundTripper{base: base, creds: a.creds}
}

type digestRoundTripper struct {
	base  http.RoundTripper
	creds Credentials

	mu        sync.Mutex
	nonceInfo *digestChallenge
	nc        uint32
}

type digestChallenge struct {
	realm     string
	nonce     string
	opaque    string
	qop       string
	algorithm string
}

func (t *digestRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("auth: read request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	t.mu.Lock()
	challenge := t.nonceInfo
	t.mu.Unlock()

	if challenge != nil {
		header, err := t.buildAuthorization(req, challenge)
		if err == nil {
			req.Header.Set("Authorization", header)
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	newChallenge := parseDigestChallenge(resp.Header.Get("WWW-Authenticate"))
	if newChallenge == nil {
		return resp, nil
	}
	_ = resp.Body.Close()

	t.mu.Lock()
	t.nonceInfo = newChallenge
	t.mu.Unlock()

	retry := req.Clone(req.Context())
	if bodyBytes != nil {
		retry.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		retry.ContentLength = int64(len(bodyBytes))
	}
	header, err := t.buildAuthorization(retry, newChallenge)
	if err != nil {
		return resp, nil
	}
	retry.Header.Set("Authorization", header)
	return t.base.RoundTrip(retry)
}

func (t *digestRoundTripper) buildAuthorization(req *http.Request, c *digestChallenge) (string, error) {
	t.mu.Lock()
	t.nc++
	nc := t.nc
	t.mu.Unlock()

	cnonce, err := randomHex(8)
	if err != nil {
		return "", err
	}
	ncStr := fmt.Sprintf("%08x", nc)

	ha1 := md5Hex(t.creds.Username + ":" + c.realm + ":" + t.creds.Password)
	ha2 := md5Hex(req.Method + ":" + req.URL.RequestURI())

	var response string
	qop := c.qop
	if qop != "" {
		response = md5Hex(strings.Join([]string{ha1, c.nonce, ncStr, cnonce, qop, ha2}, ":"))
	} else {
		response = md5Hex(strings.Join([]string{ha1, c.nonce, ha2}, ":"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		t.creds.Username, c.realm, c.nonce, req.URL.RequestURI(), response)
	if qop != "" {
		fmt.Fprintf(&b, `, qop=%s, nc=%s, cnonce="%s"`, qop, ncStr, cnonce)
	}
	if c.opaque != "" {
		fmt.Fprintf(&b, `, opaque="%s"`, c.opaque)
	}
	return b.String(), nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// parseDigestChallenge extracts the parameters of a "Digest ..."
// WWW-Authenticate header, returning nil if the header is absent or not a
// Digest challenge.
func parseDigestChallenge(header string) *digestChallenge {
	if !strings.HasPrefix(header, "Digest ") {
		return nil
	}
	params := parseAuthParams(strings.TrimPrefix(header, "Digest "))
	c := &digestChallenge{
		realm:     params["realm"],
		nonce:     params["nonce"],
		opaque:    params["opaque"],
		algorithm: params["algorithm"],
	}
	if qop, ok := params["qop"]; ok {
		// A server may offer a comma-separated list; "auth" is the only
		// qop this client supports.
		for _, q := range strings.Split(qop, ",") {
			if strings.TrimSpace(q) == "auth" {
				c.qop = "auth"
				break
			}
		}
	}
	return c
}

func parseAuthParams(s string) map[string]string {
	out := map[string]string{}
	for _, part := range splitAuthParams(s) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `"`)
		out[key] = val
	}
	return out
}

// splitAuthParams splits a comma-separated auth-param list while
// respecting commas embedded in quoted values.
func splitAuthParams(s string) []string {
	var parts []string
	inQuotes := false
	start := 0
	for i, r := range s {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
