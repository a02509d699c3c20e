// Package xmlcodec implements the bidirectional CIM-XML wire codec:
// encoding typed CIM operation requests into CIM-XML request bodies per
// DSP0200/DSP0201, and decoding CIM-XML response bodies back into typed
// CIM objects.
package xmlcodec
