package artifact

import (
	"path/filepath"
	"time"
)

// TimestampLayout formats the run timestamp as YYYYMMDD_HHMMSS.
const TimestampLayout = "20060102_150405"

// FailureLogName is the fixed log name written when the compiler fails.
const FailureLogName = "build.log"

// Timestamp formats t for artifact names.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Names holds the artifact file names of one run.
type Names struct {
	Prefix   string
	Archive  string
	PDF      string
	Log      string
	Metadata string
}

// NewNames derives all artifact names from one target and one timestamp token.
func NewNames(target, timestamp string) Names {
	prefix := target + "_" + timestamp
	return Names{
		Prefix:   prefix,
		Archive:  prefix + ".tar.gz",
		PDF:      prefix + ".pdf",
		Log:      prefix + ".log",
		Metadata: prefix + ".txt",
	}
}

// In returns the names joined onto dir.
func (n Names) In(dir string) Names {
	return Names{
		Prefix:   n.Prefix,
		Archive:  filepath.Join(dir, n.Archive),
		PDF:      filepath.Join(dir, n.PDF),
		Log:      filepath.Join(dir, n.Log),
		Metadata: filepath.Join(dir, n.Metadata),
	}
}
