package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyTarget     = "target"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyPattern    = "pattern"
	KeyCount      = "count"
	KeyExitCode   = "exit_code"
	KeyCommand    = "command"
	KeyDurationMS = "duration_ms"
	KeyRevision   = "revision"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Pattern(p string) slog.Attr      { return slog.String(KeyPattern, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func ExitCode(c int) slog.Attr        { return slog.Int(KeyExitCode, c) }
func Command(argv []string) slog.Attr { return slog.Any(KeyCommand, argv) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Since(start time.Time) slog.Attr { return DurationMS(float64(time.Since(start).Microseconds()) / 1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
