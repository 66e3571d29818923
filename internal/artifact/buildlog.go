package artifact

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"git.home.luguber.info/inful/tidyarxiv/internal/compiler"
)

// LogHeader carries run details written above the captured streams.
type LogHeader struct {
	BuildID  string
	Target   string
	Revision string
	Started  time.Time
}

// RenderLog formats a build log: an informational header, then the STDERR
// section, then the STDOUT section.
func RenderLog(h LogHeader, outcome *compiler.Outcome) []byte {
	var b bytes.Buffer
	if h.BuildID != "" {
		fmt.Fprintf(&b, "Build:    %s\n", h.BuildID)
	}
	if h.Target != "" {
		fmt.Fprintf(&b, "Target:   %s.tex\n", h.Target)
	}
	if !h.Started.IsZero() {
		fmt.Fprintf(&b, "Started:  %s\n", h.Started.Format(time.RFC3339))
	}
	if h.Revision != "" {
		fmt.Fprintf(&b, "Revision: %s\n", h.Revision)
	}
	if outcome != nil {
		fmt.Fprintf(&b, "Command:  %q\n", outcome.Argv)
		fmt.Fprintf(&b, "Exit:     %d\n", outcome.ExitCode)
		fmt.Fprintf(&b, "Duration: %s\n", outcome.Duration.Round(time.Millisecond))
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}

	var stdout, stderr []byte
	if outcome != nil {
		stdout, stderr = outcome.Stdout, outcome.Stderr
	}
	b.WriteString("STDERR:\n=======\n")
	b.Write(stderr)
	b.WriteString("\n")
	b.WriteString("STDOUT:\n=======\n")
	b.Write(stdout)
	b.WriteString("\n")
	return b.Bytes()
}

// WriteLog writes the rendered build log to path.
func WriteLog(path string, h LogHeader, outcome *compiler.Outcome) error {
	if err := os.WriteFile(path, RenderLog(h, outcome), 0o644); err != nil {
		return fmt.Errorf("write build log: %w", err)
	}
	return nil
}
