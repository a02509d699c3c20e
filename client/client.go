package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tony23/pywbem/auth"
	"github.com/tony23/pywbem/cim"
	internallog "github.com/tony23/pywbem/internal/log"
	"github.com/tony23/pywbem/transport"
	"github.com/tony23/pywbem/wbemerrors"
	"github.com/tony23/pywbem/xmlcodec"
)

// AuthScheme selects the HTTP authentication scheme a Connection uses.
type AuthScheme int

const (
	// AuthBasic is HTTP Basic authentication, the default.
	AuthBasic AuthScheme = iota
	// AuthDigest is RFC 2617 Digest authentication, accepted when the
	// server challenges for it.
	AuthDigest
)

// Config holds the construction-time configuration for a Connection.
type Config struct {
	// URL is the CIMOM base URL, e.g. "https://cimserver:5989". The
	// "/cimom" path (or Path, if set) is appended by the transport.
	URL string

	// Path overrides the default "/cimom" HTTP path.
	Path string

	// DefaultNamespace is used when neither the operation nor the object
	// path supplies one.
	DefaultNamespace string

	Username string
	Password string

	// AuthScheme selects Basic (default) or Digest authentication.
	AuthScheme AuthScheme

	// Timeout covers connect+send+receive for a single operation.
	// Defaults to transport.DefaultTimeout.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification. Only ever
	// intended for test CIMOMs.
	InsecureSkipVerify bool

	// StatsEnabled turns on the statistics table.
	StatsEnabled bool

	// Logger receives the Debug-level start/finish/CIM-error logging and
	// the Warn-level transport-error logging of intrinsic operations;
	// retries and pull-state transitions are not logged. Defaults to
	// slog.Default() wrapped in internal/log's redacting handler.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the library defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: transport.DefaultTimeout,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("client: URL is required")
	}
	if c.Username == "" {
		return errors.New("client: username is required")
	}
	if c.Password == "" {
		return errors.New("client: password is required")
	}
	return nil
}

// Connection is a stateful WBEM connection: credentials, default
// namespace, statistics, and active enumeration contexts. It is not safe
// for concurrent operation invocations from multiple goroutines; each
// operation call acquires an internal mutex for the duration of the
// request/response round trip.
type Connection struct {
	mu sync.Mutex

	cfg         Config
	transporter transporter
	recorder    Recorder
	logger      *slog.Logger
	msgID       *messageIDCounter
	stats       *statsTracker
	sessionID   uuid.UUID
	openEnums   int

	// now is time.Now, swappable from tests for deterministic
	// client-time statistics.
	now func() time.Time
}

// New constructs a Connection from cfg, wiring a transport.Transport with
// the configured TLS/timeout options and the selected Authenticator.
func New(cfg Config) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var authenticator auth.Authenticator
	creds := auth.Credentials{Username: cfg.Username, Password: cfg.Password}
	switch cfg.AuthScheme {
	case AuthDigest:
		authenticator = auth.NewDigestAuth(creds)
	default:
		authenticator = auth.NewBasicAuth(creds)
	}

	opts := []transport.Option{
		transport.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		transport.WithRoundTripper(authenticator.Transport),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, transport.WithTimeout(cfg.Timeout))
	}
	if cfg.Path != "" {
		opts = append(opts, transport.WithPath(cfg.Path))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(internallog.NewRedactingHandler(slog.Default().Handler()))
	}

	return &Connection{
		cfg:         cfg,
		transporter: transport.New(opts...),
		recorder:    nopRecorder{},
		logger:      logger,
		msgID:       newMessageIDCounter(),
		now:         time.Now,
		stats:       newStatsTracker(cfg.StatsEnabled),
		sessionID:   uuid.New(),
	}, nil
}

// SetRecorder installs r as the Connection's Recorder, replacing the
// default no-op. Passing a *ReplayRecorder also substitutes it as the
// transporter, bypassing the transport entirely.
func (c *Connection) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
	if t, ok := r.(transporter); ok {
		c.transporter = t
	}
}

// SessionID returns the connection's correlation identifier. It is not
// included in statistics or recorder output, and it is never used as the
// wire Message-ID, which stays a monotonic per-connection counter.
func (c *Connection) SessionID() uuid.UUID { return c.sessionID }

// Statistics returns a snapshot of the per-method counters accumulated
// since the Connection was created. Empty when Config.StatsEnabled was
// false.
func (c *Connection) Statistics() map[string]MethodStats {
	return c.stats.snapshot()
}

// Close releases the Connection's idle pooled HTTP connections. A
// Connection has no other owned resources to release.
func (c *Connection) Close() error {
	if t, ok := c.transporter.(*transport.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}

// resolveNamespace computes the effective namespace: opNamespace if
// supplied, else pathNamespace, else the connection's default.
// Normalization is applied before the result is returned; an empty result
// is a local ModelError raised before any bytes go on the wire.
func (c *Connection) resolveNamespace(opNamespace, pathNamespace string) (string, error) {
	ns := opNamespace
	if ns == "" {
		ns = pathNamespace
	}
	if ns == "" {
		ns = c.cfg.DefaultNamespace
	}
	if ns == "" {
		return "", &wbemerrors.ModelError{Msg: "no namespace supplied on the operation, the object path, or the connection default"}
	}
	normalized, err := cim.NormalizeNamespace(ns)
	if err != nil {
		return "", &wbemerrors.ModelError{Msg: err.Error()}
	}
	return normalized, nil
}

// doIntrinsic is the shared request/response round trip for every typed
// intrinsic method: it serializes access to the Connection, builds and
// encodes the request, posts it, decodes the response, records
// statistics, and maps a CIM-XML <ERROR> to a wbemerrors.CIMError.
func (c *Connection) doIntrinsic(ctx context.Context, method, namespace string, params []xmlcodec.Param) (*xmlcodec.ReturnValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkNoOpenEnumeration(method); err != nil {
		return nil, err
	}

	c.logger.Debug("wbem operation start", "method", method, "namespace", namespace)
	start := c.now()

	req := &xmlcodec.Request{
		MessageID:  c.msgID.Next(),
		Intrinsic:  true,
		MethodName: method,
		Namespace:  namespace,
		Params:     params,
	}
	c.recorder.StagedRequest(RequestInfo{Method: method, Namespace: namespace, Params: params})

	body, err := xmlcodec.Encode(req)
	if err != nil {
		c.stats.record(method, c.now().Sub(start), 0, 0, 0, true)
		return nil, fmt.Errorf("client: encode %s request: %w", method, err)
	}
	c.recorder.StagedHTTPRequest(body, nil)

	reply, err := c.transporter.Post(ctx, c.cfg.URL, method, namespace, body)
	if err != nil {
		c.logger.Warn("wbem transport error", "method", method, "error", err)
		c.recorder.StagedReply(nil, err)
		c.stats.record(method, c.now().Sub(start), 0, len(body), 0, true)
		return nil, err
	}
	c.recorder.StagedHTTPReply(reply.Body, reply.Header)

	resp, err := xmlcodec.Decode(reply.Body)
	if err != nil {
		c.recorder.StagedReply(nil, err)
		c.stats.record(method, c.now().Sub(start), 0, len(body), len(reply.Body), true)
		return nil, fmt.Errorf("client: decode %s response: %w", method, err)
	}

	clientTime := c.now().Sub(start)
	serverTime := parseServerTime(reply.Header.Get("WBEMServerResponseTime"))
	c.stats.record(method, clientTime, serverTime, len(body), len(reply.Body), resp.Error != nil)

	if resp.Error != nil {
		c.logger.Debug("wbem operation returned CIMError", "method", method, "code", resp.Error.Code, "mnemonic", resp.Error.Mnemonic())
		c.recorder.StagedReply(resp, resp.Error)
		return nil, resp.Error
	}
	c.logger.Debug("wbem operation finished", "method", method)
	c.recorder.StagedReply(resp, nil)
	return resp.Return, nil
}

// doExtrinsic is the extrinsic-method analogue of doIntrinsic, used by
// InvokeMethod.
func (c *Connection) doExtrinsic(ctx context.Context, methodName string, instancePath *cim.InstanceName, classPath *cim.ClassName, params []xmlcodec.Param) (*xmlcodec.ReturnValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkNoOpenEnumeration(methodName); err != nil {
		return nil, err
	}

	start := c.now()
	req := &xmlcodec.Request{
		MessageID:    c.msgID.Next(),
		Intrinsic:    false,
		MethodName:   methodName,
		InstancePath: instancePath,
		ClassPath:    classPath,
		Params:       params,
	}
	target := ""
	if instancePath != nil {
		target = instancePath.Namespace
	} else if classPath != nil {
		target = classPath.Namespace
	}
	c.recorder.StagedRequest(RequestInfo{Method: methodName, Namespace: target, Params: params})

	body, err := xmlcodec.Encode(req)
	if err != nil {
		c.stats.record(methodName, c.now().Sub(start), 0, 0, 0, true)
		return nil, fmt.Errorf("client: encode %s request: %w", methodName, err)
	}
	c.recorder.StagedHTTPRequest(body, nil)

	reply, err := c.transporter.Post(ctx, c.cfg.URL, methodName, target, body)
	if err != nil {
		c.recorder.StagedReply(nil, err)
		c.stats.record(methodName, c.now().Sub(start), 0, len(body), 0, true)
		return nil, err
	}
	c.recorder.StagedHTTPReply(reply.Body, reply.Header)

	resp, err := xmlcodec.Decode(reply.Body)
	if err != nil {
		c.recorder.StagedReply(nil, err)
		c.stats.record(methodName, c.now().Sub(start), 0, len(body), len(reply.Body), true)
		return nil, fmt.Errorf("client: decode %s response: %w", methodName, err)
	}

	clientTime := c.now().Sub(start)
	serverTime := parseServerTime(reply.Header.Get("WBEMServerResponseTime"))
	c.stats.record(methodName, clientTime, serverTime, len(body), len(reply.Body), resp.Error != nil)

	if resp.Error != nil {
		c.recorder.StagedReply(resp, resp.Error)
		return nil, resp.Error
	}
	c.recorder.StagedReply(resp, nil)
	return resp.Return, nil
}

// checkNoOpenEnumeration fails any operation other than Pull*/Close* while
// the server holds an open enumeration context for this connection. Raised
// locally, before any bytes go on the wire.
func (c *Connection) checkNoOpenEnumeration(method string) error {
	if c.openEnums == 0 || pullFamilyMethod(method) {
		return nil
	}
	return &wbemerrors.ModelError{
		Msg: "operation " + method + " is not permitted while a pull enumeration is open; Pull or Close it first",
	}
}

func pullFamilyMethod(method string) bool {
	return strings.HasPrefix(method, "Pull") || method == "CloseEnumeration"
}

func (c *Connection) enumOpened() {
	c.mu.Lock()
	c.openEnums++
	c.mu.Unlock()
}

func (c *Connection) enumClosed() {
	c.mu.Lock()
	if c.openEnums > 0 {
		c.openEnums--
	}
	c.mu.Unlock()
}

func parseServerTime(header string) time.Duration {
	if header == "" {
		return 0
	}
	micros, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(micros) * time.Microsecond
}
