package client

import (
	"context"
	"net/http"

	"github.com/tony23/pywbem/transport"
	"github.com/tony23/pywbem/xmlcodec"
)

// RequestInfo is the staged shape of a single operation request, observed
// by a Recorder before encoding.
type RequestInfo struct {
	Method    string
	Namespace string
	Params    []xmlcodec.Param
}

// Recorder observes each of the four stages of an operation call: the
// staged request, the encoded HTTP request, the raw HTTP reply, and the
// decoded result or error. Recorders observe values, never mutable
// references to in-flight request structures.
type Recorder interface {
	StagedRequest(info RequestInfo)
	StagedHTTPRequest(body []byte, headers http.Header)
	StagedHTTPReply(body []byte, headers http.Header)
	StagedReply(resp *xmlcodec.Response, err error)
}

// nopRecorder is the default Recorder: it observes nothing.
type nopRecorder struct{}

func (nopRecorder) StagedRequest(RequestInfo)                 {}
func (nopRecorder) StagedHTTPRequest(_ []byte, _ http.Header) {}
func (nopRecorder) StagedHTTPReply(_ []byte, _ http.Header)   {}
func (nopRecorder) StagedReply(_ *xmlcodec.Response, _ error) {}

// transporter is the seam between the Engine and the wire. *transport.
// Transport satisfies it for live connections; a ReplayRecorder also
// satisfies it to synthesize HTTP replies from a canned file, bypassing
// the transport entirely.
type transporter interface {
	Post(ctx context.Context, baseURL, method, cimObject string, body []byte) (*transport.Reply, error)
}

var _ transporter = (*transport.Transport)(nil)
