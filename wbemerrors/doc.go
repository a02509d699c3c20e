// Package wbemerrors implements the error taxonomy for the WBEM client:
// CIMError (server-reported, with DMTF mnemonics), and the local/transport
// kinds ConnectionError, AuthError, TimeoutError, HTTPError, ParseError,
// VersionError, and ModelError.
package wbemerrors
