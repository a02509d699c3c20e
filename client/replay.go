package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tony23/pywbem/transport"
	"github.com/tony23/pywbem/xmlcodec"
)

// TestCase is one replay-file record: a named, described
// round trip pairing the request the Engine staged with the HTTP
// exchange a YAMLRecorder observed or a ReplayRecorder should synthesize.
type TestCase struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Request     RecordedRequest  `yaml:"pywbem_request"`
	Response    RecordedResponse `yaml:"pywbem_response"`
	HTTPRequest HTTPExchange     `yaml:"http_request"`
	HTTPReply   HTTPExchange     `yaml:"http_response"`
}

// RecordedRequest is the `pywbem_request` mapping, trimmed
// to the fields this module's Recorder can observe without reaching into
// the caller's original keyword-argument shape.
type RecordedRequest struct {
	Namespace    string `yaml:"namespace"`
	Operation    string `yaml:"operation"`
	StatsEnabled bool   `yaml:"stats-enabled"`
}

// RecordedResponse is the `pywbem_response` mapping: either a successful
// result was returned (opaque here — the typed CIM tree lives in
// http_response.data) or the server raised a CIMError of CIMStatus.
type RecordedResponse struct {
	CIMStatus  int  `yaml:"cim_status"`
	RequestLen int  `yaml:"request_len"`
	ReplyLen   int  `yaml:"reply_len"`
	HasResult  bool `yaml:"-"`
}

// HTTPExchange is the wire-level shape shared by `http_request` and
// `http_response` records.
type HTTPExchange struct {
	Verb    string            `yaml:"verb,omitempty"`
	URL     string            `yaml:"url,omitempty"`
	Status  int               `yaml:"status,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Data    string            `yaml:"data"`
}

// YAMLRecorder observes the four operation stages and
// accumulates them into TestCase records, written to disk by Save. It
// implements Recorder but not transporter: it rides alongside a live
// Connection and captures real traffic for later replay.
type YAMLRecorder struct {
	mu    sync.Mutex
	cases []TestCase

	pending TestCase
	seq     int
}

// NewYAMLRecorder returns a YAMLRecorder with no cases yet recorded.
func NewYAMLRecorder() *YAMLRecorder {
	return &YAMLRecorder{}
}

func (r *YAMLRecorder) StagedRequest(info RequestInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.pending = TestCase{
		Name: fmt.Sprintf("%s-%d", info.Method, r.seq),
		Request: RecordedRequest{
			Namespace: info.Namespace,
			Operation: info.Method,
		},
	}
}

func (r *YAMLRecorder) StagedHTTPRequest(body []byte, headers http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.HTTPRequest = HTTPExchange{Verb: "POST", Headers: flattenHeader(headers), Data: string(body)}
}

func (r *YAMLRecorder) StagedHTTPReply(body []byte, headers http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.HTTPReply = HTTPExchange{Status: http.StatusOK, Headers: flattenHeader(headers), Data: string(body)}
	r.pending.Response.RequestLen = len(r.pending.HTTPRequest.Data)
	r.pending.Response.ReplyLen = len(body)
}

func (r *YAMLRecorder) StagedReply(resp *xmlcodec.Response, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if resp != nil && resp.Error != nil {
		r.pending.Response.CIMStatus = resp.Error.Code
	} else if err == nil {
		r.pending.Response.HasResult = true
	}
	r.cases = append(r.cases, r.pending)
	r.pending = TestCase{}
}

// Cases returns the TestCase records accumulated so far.
func (r *YAMLRecorder) Cases() []TestCase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TestCase, len(r.cases))
	copy(out, r.cases)
	return out
}

// Save marshals the accumulated cases as YAML to path.
func (r *YAMLRecorder) Save(path string) error {
	data, err := yaml.Marshal(r.Cases())
	if err != nil {
		return fmt.Errorf("client: marshal replay cases: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

// ReplayRecorder verifies operations against a canned replay file and
// synthesizes the HTTP reply, bypassing the transport entirely. It
// implements both Recorder (so SetRecorder installs it) and
// transporter (so SetRecorder also substitutes it as the Connection's
// transport), matching the doc comment on SetRecorder.
type ReplayRecorder struct {
	mu    sync.Mutex
	cases []TestCase
	next  int

	// Mismatches records operations whose observed method/namespace did
	// not match the next expected TestCase, for the caller to assert on
	// after a test run instead of failing mid-call.
	Mismatches []string
}

// LoadReplayFile reads a sequence of TestCase records from a YAML replay
// file.
func LoadReplayFile(path string) (*ReplayRecorder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("client: read replay file: %w", err)
	}
	var cases []TestCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("client: parse replay file: %w", err)
	}
	return &ReplayRecorder{cases: cases}, nil
}

var _ Recorder = (*ReplayRecorder)(nil)
var _ transporter = (*ReplayRecorder)(nil)

func (r *ReplayRecorder) StagedRequest(info RequestInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.cases) {
		r.Mismatches = append(r.Mismatches, fmt.Sprintf("operation %s: no more cases in replay file", info.Method))
		return
	}
	want := r.cases[r.next].Request
	if want.Operation != "" && want.Operation != info.Method {
		r.Mismatches = append(r.Mismatches, fmt.Sprintf("case %d: expected operation %s, got %s", r.next, want.Operation, info.Method))
	}
	if want.Namespace != "" && want.Namespace != info.Namespace {
		r.Mismatches = append(r.Mismatches, fmt.Sprintf("case %d: expected namespace %s, got %s", r.next, want.Namespace, info.Namespace))
	}
}

func (r *ReplayRecorder) StagedHTTPRequest(_ []byte, _ http.Header) {}
func (r *ReplayRecorder) StagedHTTPReply(_ []byte, _ http.Header)   {}
func (r *ReplayRecorder) StagedReply(_ *xmlcodec.Response, _ error) {}

// Post satisfies transporter by returning the next TestCase's canned
// http_response instead of contacting any server.
func (r *ReplayRecorder) Post(_ context.Context, _, _, _ string, _ []byte) (*transport.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.cases) {
		return nil, fmt.Errorf("client: replay exhausted after %d cases", len(r.cases))
	}
	tc := r.cases[r.next]
	r.next++

	status := tc.HTTPReply.Status
	if status == 0 {
		status = http.StatusOK
	}
	header := make(http.Header, len(tc.HTTPReply.Headers))
	for k, v := range tc.HTTPReply.Headers {
		header.Set(k, v)
	}
	if header.Get("CIMOperation") == "" {
		header.Set("CIMOperation", "MethodResponse")
	}
	return &transport.Reply{
		StatusCode: status,
		Header:     header,
		Body:       []byte(tc.HTTPReply.Data),
	}, nil
}

// Remaining reports how many cases have not yet been consumed.
func (r *ReplayRecorder) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cases) - r.next
}
