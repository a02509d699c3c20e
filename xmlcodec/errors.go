package xmlcodec

import "github.com/tony23/pywbem/wbemerrors"

func newParseErrorAt(line, col int, msg string) *wbemerrors.ParseError {
	return &wbemerrors.ParseError{Msg: msg, Line: line, Col: col}
}

func unexpectedElement(n *node, context string) *wbemerrors.ParseError {
	return newParseErrorAt(n.Line, n.Col, "unexpected element <"+n.Name+"> in "+context)
}

func missingElement(n *node, name, context string) *wbemerrors.ParseError {
	return newParseErrorAt(n.Line, n.Col, "missing required element <"+name+"> in "+context)
}

// checkAllowedChildren rejects any child of n whose name is not in
// allowed; extension elements are not silently tolerated.
func checkAllowedChildren(n *node, context string, allowed ...string) error {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	for _, c := range n.Children {
		if !set[c.Name] {
			return unexpectedElement(c, context)
		}
	}
	return nil
}
