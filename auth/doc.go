// Package auth provides pluggable HTTP authenticators for a WBEM
// connection: HTTP Basic (the default) and Digest, used when the server
// challenges with a WWW-Authenticate header.
package auth
