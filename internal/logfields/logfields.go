// Package logfields defines the canonical log field names so keys do not
// drift across packages.
package logfields

import "log/slog"

const (
	KeyDocname    = "docname"
	KeySlug       = "slug"
	KeyBuildID    = "build_id"
	KeySource     = "source"
	KeyDiagnostic = "diagnostic"
	KeyNodeType   = "node_type"
	KeyDurationMS = "duration_ms"
	KeyCategory   = "category"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Docname(name string) slog.Attr   { return slog.String(KeyDocname, name) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Source(dir string) slog.Attr     { return slog.String(KeySource, dir) }
func Diagnostic(d string) slog.Attr   { return slog.String(KeyDiagnostic, d) }
func NodeType(t string) slog.Attr     { return slog.String(KeyNodeType, t) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
