// Package transport implements the HTTP binding for CIM-XML over WBEM
// (DMTF DSP0200): POST to a CIMOM endpoint with the CIMOperation/CIMMethod/
// CIMObject headers, TLS configurability, a single connect+send+receive
// timeout, and a one-shot retry on connection reset for idempotent
// operations.
package transport
