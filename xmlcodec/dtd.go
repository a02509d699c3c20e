package xmlcodec

import _ "embed"

// cimDTD is the fragment of the DMTF CIM-XML DTD (DSP0201) this codec
// implements, embedded so diagnostics and callers can refer to the exact
// element contracts without fetching the DTD externally.
//
//go:embed cimxml.dtd
var cimDTD string

// DTD returns the embedded CIM-XML DTD fragment covering every element
// this codec emits or parses.
func DTD() string { return cimDTD }
