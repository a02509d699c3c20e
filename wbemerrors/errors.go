package wbemerrors

import (
	"fmt"

	"github.com/tony23/pywbem/cim"
)

// mnemonics maps a CIM-XML <ERROR CODE="..."> status code to its DMTF
// mnemonic. Codes 1-28 are tabulated in full, per DSP0200.
var mnemonics = map[int]string{
	1:  "CIM_ERR_FAILED",
	2:  "CIM_ERR_ACCESS_DENIED",
	3:  "CIM_ERR_INVALID_NAMESPACE",
	4:  "CIM_ERR_INVALID_PARAMETER",
	5:  "CIM_ERR_INVALID_CLASS",
	6:  "CIM_ERR_NOT_FOUND",
	7:  "CIM_ERR_NOT_SUPPORTED",
	8:  "CIM_ERR_CLASS_HAS_CHILDREN",
	9:  "CIM_ERR_CLASS_HAS_INSTANCES",
	10: "CIM_ERR_INVALID_SUPERCLASS",
	11: "CIM_ERR_ALREADY_EXISTS",
	12: "CIM_ERR_NO_SUCH_PROPERTY",
	13: "CIM_ERR_TYPE_MISMATCH",
	14: "CIM_ERR_QUERY_LANGUAGE_NOT_SUPPORTED",
	15: "CIM_ERR_INVALID_QUERY",
	16: "CIM_ERR_METHOD_NOT_AVAILABLE",
	17: "CIM_ERR_METHOD_NOT_FOUND",
	18: "CIM_ERR_UNEXPECTED_RESPONSE",
	19: "CIM_ERR_INVALID_RESPONSE_DESTINATION",
	20: "CIM_ERR_NAMESPACE_NOT_EMPTY",
	21: "CIM_ERR_INVALID_ENUMERATION_CONTEXT",
	22: "CIM_ERR_INVALID_OPERATION_TIMEOUT",
	23: "CIM_ERR_PULL_HAS_BEEN_ABANDONED",
	24: "CIM_ERR_PULL_CANNOT_BE_ABANDONED",
	25: "CIM_ERR_FILTERED_ENUMERATION_NOT_SUPPORTED",
	26: "CIM_ERR_CONTINUATION_ON_ERROR_NOT_SUPPORTED",
	27: "CIM_ERR_SERVER_LIMITS_EXCEEDED",
	28: "CIM_ERR_SERVER_IS_SHUTTING_DOWN",
}

// Mnemonic returns the DMTF mnemonic for a CIM status code, or
// "CIM_ERR_UNKNOWN" if code is not in the DSP0200 table.
func Mnemonic(code int) string {
	if m, ok := mnemonics[code]; ok {
		return m
	}
	return "CIM_ERR_UNKNOWN"
}

// CIMError is a server-reported error carried in a CIM-XML <ERROR>
// element.
type CIMError struct {
	Code        int
	Description string
	Instances   []*cim.Instance
}

func (e *CIMError) Error() string {
	return fmt.Sprintf("wbem: %s (code=%d): %s", Mnemonic(e.Code), e.Code, e.Description)
}

// Mnemonic returns the DMTF mnemonic for e's code.
func (e *CIMError) Mnemonic() string { return Mnemonic(e.Code) }

// ConnectionError reports a transport-level failure to reach the server
// (connect refused, DNS failure, TLS handshake failure).
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("wbem: connection error during %s: %v", e.Op, e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError reports an authentication failure: an HTTP 401 with no
// further credential available.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return "wbem: authentication failed: " + e.Msg }

// TimeoutError reports that the configured operation timeout elapsed
// before a response was received. This is a transport failure, not a
// CIMError.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string { return "wbem: operation " + e.Op + " timed out" }

// HTTPError reports a non-200 HTTP response that was not a 401.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("wbem: HTTP %d: %s", e.StatusCode, e.Body)
}

// ParseError reports malformed or unexpected CIM-XML, including unknown
// elements, with a line/column pointer when available.
type ParseError struct {
	Msg       string
	Line, Col int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("wbem: parse error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
	}
	return "wbem: parse error: " + e.Msg
}

// VersionError reports a CIM-XML document whose DTDVERSION is not
// supported.
type VersionError struct {
	Got string
}

func (e *VersionError) Error() string {
	return "wbem: unsupported DTDVERSION " + e.Got + " (expected 2.x)"
}

// ModelError reports a local precondition violation detected before any
// bytes go on the wire: missing namespace, conflicting arguments, invalid
// type codes, array/scalar mismatch.
type ModelError struct {
	Msg string
}

func (e *ModelError) Error() string { return "wbem: " + e.Msg }
