package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tony23/pywbem/wbemerrors"
)

const (
	// ContentTypeCIMXML is the Content-Type header value for CIM-XML
	// request/response bodies.
	ContentTypeCIMXML = `application/xml; charset="utf-8"`

	// DefaultPath is the default CIMOM HTTP path.
	DefaultPath = "/cimom"

	// DefaultTimeout covers connect+send+receive for a single operation
	// when the caller does not set one explicitly.
	DefaultTimeout = 60 * time.Second

	defaultBufferSize = 32 * 1024
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	},
}

func getBuffer() *bytes.Buffer { return bufferPool.Get().(*bytes.Buffer) }

func putBuffer(buf *bytes.Buffer) {
	buf.Reset()
	bufferPool.Put(buf)
}

func readAllPooled(r io.Reader) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Transport POSTs CIM-XML request bodies to a CIMOM over HTTP/HTTPS. It
// is stateless apart from the underlying *http.Client
// and is safe to share across Connections.
type Transport struct {
	client *http.Client
	path   string
}

// Option configures a Transport.
type Option func(*Transport)

// New creates a Transport with the DSP0200 defaults: 60s timeout, TLS 1.2
// floor, default "/cimom" path.
func New(opts ...Option) *Transport {
	t := &Transport{
		path: DefaultPath,
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithTimeout sets the single connect+send+receive timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) { t.client.Timeout = d }
}

// WithPath overrides the default "/cimom" path.
func WithPath(path string) Option {
	return func(t *Transport) { t.path = path }
}

// WithInsecureSkipVerify disables TLS certificate verification. Only ever
// intended for test CIMOMs with self-signed certificates.
func WithInsecureSkipVerify(skip bool) Option {
	return func(t *Transport) {
		tr := t.ensureHTTPTransport()
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		tr.TLSClientConfig.InsecureSkipVerify = skip
	}
}

// WithTLSConfig installs a caller-supplied TLS configuration, flooring
// MinVersion at TLS 1.2 regardless of what the caller set.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(t *Transport) {
		if cfg.MinVersion < tls.VersionTLS12 {
			cfg.MinVersion = tls.VersionTLS12
		}
		t.ensureHTTPTransport().TLSClientConfig = cfg
	}
}

// WithRoundTripper wraps the transport's RoundTripper, the seam an
// auth.Authenticator uses to inject credentials.
func WithRoundTripper(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(t *Transport) { t.client.Transport = wrap(t.client.Transport) }
}

func (t *Transport) ensureHTTPTransport() *http.Transport {
	tr, ok := t.client.Transport.(*http.Transport)
	if !ok {
		tr = &http.Transport{}
		t.client.Transport = tr
	}
	return tr
}

// Reply is a received HTTP response: status, headers, and the raw body
// bytes (before any XML decoding), so the Engine can capture exact
// body-length statistics.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// idempotentPrefixes lists the intrinsic CIM methods eligible for the
// single connection-reset retry: Get*, Enumerate*, Pull*,
// Close*. Create/Modify/Delete/Invoke are never retried.
var idempotentPrefixes = []string{"Get", "Enumerate", "Pull", "Close"}

// IsIdempotentMethod reports whether method is safe to retry once on a
// connection reset.
func IsIdempotentMethod(method string) bool {
	for _, p := range idempotentPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

// Post sends body as a CIM-XML request to url+path, setting the CIM
// headers required by DSP0200. cimObject is the operation's target
// (a namespace or an object path) and is URL-encoded per DSP0200 §C before
// being placed in the CIMObject header. method names the intrinsic or
// extrinsic method being invoked (the CIMMethod header).
//
// A connection reset during send is retried exactly once when
// IsIdempotentMethod(method) is true; any other transport failure
// propagates as a wbemerrors.ConnectionError, a timeout as
// wbemerrors.TimeoutError.
func (t *Transport) Post(ctx context.Context, baseURL, method, cimObject string, body []byte) (*Reply, error) {
	reply, err := t.post(ctx, baseURL, method, cimObject, body)
	if err != nil && isConnReset(err) && IsIdempotentMethod(method) {
		reply, err = t.post(ctx, baseURL, method, cimObject, body)
	}
	if err != nil {
		return nil, classifyTransportError(method, err)
	}
	return reply, nil
}

func (t *Transport) post(ctx context.Context, baseURL, method, cimObject string, body []byte) (*Reply, error) {
	target := strings.TrimRight(baseURL, "/") + t.path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", ContentTypeCIMXML)
	req.Header.Set("CIMOperation", "MethodCall")
	req.Header.Set("CIMMethod", method)
	req.Header.Set("CIMObject", encodeCIMObject(cimObject))
	req.ContentLength = int64(len(body))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := readAllPooled(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &wbemerrors.AuthError{Msg: "server returned 401 Unauthorized"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &wbemerrors.HTTPError{StatusCode: resp.StatusCode, Body: previewBody(respBody)}
	}
	if op := resp.Header.Get("CIMOperation"); op != "MethodResponse" {
		return nil, &wbemerrors.ConnectionError{Op: method, Err: fmt.Errorf("response CIMOperation header is %q, want MethodResponse", op)}
	}

	return &Reply{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

func previewBody(b []byte) string {
	const max = 2048
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// encodeCIMObject URL-encodes cimObject per DSP0200 §C while preserving
// the '/' path-segment separators a namespace or object path carries.
func encodeCIMObject(cimObject string) string {
	segs := strings.Split(cimObject, "/")
	for i, s := range segs {
		segs[i] = url.QueryEscape(s)
	}
	return strings.Join(segs, "/")
}

func isConnReset(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && !netErr.Timeout() {
		return strings.Contains(strings.ToLower(err.Error()), "reset")
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection reset")
}

func classifyTransportError(method string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &wbemerrors.TimeoutError{Op: method}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &wbemerrors.TimeoutError{Op: method}
	}
	var authErr *wbemerrors.AuthError
	if errors.As(err, &authErr) {
		return err
	}
	var httpErr *wbemerrors.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	var connErr *wbemerrors.ConnectionError
	if errors.As(err, &connErr) {
		return err
	}
	return &wbemerrors.ConnectionError{Op: method, Err: err}
}

// CloseIdleConnections closes idle pooled connections, forcing a fresh
// handshake for the next request (e.g. after rotating credentials).
func (t *Transport) CloseIdleConnections() { t.client.CloseIdleConnections() }

// Client returns the underlying *http.Client for advanced configuration.
func (t *Transport) Client() *http.Client { return t.client }
