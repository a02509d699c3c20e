// Package log provides the redacting slog handler a WBEM connection logs
// through: operation logging touches connection credentials, Authorization
// headers, and digest-challenge material, none of which may reach a sink
// in clear text.
package log

import (
	"context"
	"log/slog"
	"strings"
)

const redactedPlaceholder = "[REDACTED]"

// secretKeywords are substrings of attribute keys whose values are never
// logged: the connection's credential pair, HTTP auth material, and the
// digest-challenge fields a WBEM session carries.
var secretKeywords = []string{
	"password",
	"pass",
	"credential",
	"cred",
	"secret",
	"token",
	"authorization",
	"auth",
	"nonce", // also matches cnonce
	"opaque",
	"key",
	"ticket",
	"hash",
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, w := range secretKeywords {
		if strings.Contains(k, w) {
			return true
		}
	}
	return false
}

// scrub replaces the value of any secret-keyed attribute with the
// redaction placeholder, descending into groups.
func scrub(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		scrubbed := make([]any, len(members))
		for i, m := range members {
			scrubbed[i] = scrub(m)
		}
		return slog.Group(a.Key, scrubbed...)
	}
	if isSecretKey(a.Key) {
		return slog.String(a.Key, redactedPlaceholder)
	}
	return a
}

// RedactingHandler wraps another slog.Handler and scrubs secret-keyed
// attributes from every record before it is handled.
type RedactingHandler struct {
	inner slog.Handler
}

// NewRedactingHandler wraps inner with redaction.
func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	clean := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(scrub(a))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = scrub(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(scrubbed)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}
