package pipeline

import (
	"time"

	"git.home.luguber.info/inful/tidyarxiv/internal/artifact"
	"git.home.luguber.info/inful/tidyarxiv/internal/compiler"
)

// Status is the final state of a run.
type Status string

const (
	// StatusSuccess means the compiler succeeded and every artifact was written.
	StatusSuccess Status = "success"
	// StatusFailed means the compiler exited non-zero; only build.log was written.
	StatusFailed Status = "failed"
	// StatusCanceled means the run was interrupted; build.log was written if the compiler had started.
	StatusCanceled Status = "canceled"
	// StatusError means the run aborted before or after compilation (configuration, staging, packaging).
	StatusError Status = "error"
)

// Stage names used for logs and metrics.
const (
	StageValidate = "validate"
	StageResolve  = "resolve"
	StageStage    = "stage"
	StageBuild    = "build"
	StagePackage  = "package"
)

// Result describes one run.
type Result struct {
	BuildID   string
	Started   time.Time
	Timestamp string
	Duration  time.Duration
	Status    Status
	Revision  string

	// StagingDir is the staging tree used by the run. It no longer exists
	// after Run returns unless keep_staging is set.
	StagingDir string
	Imported   []string
	Sanitized  []string

	Outcome    *compiler.Outcome
	Bundle     *artifact.Bundle
	FailureLog string
}

// Succeeded reports whether every artifact was produced.
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// ExitCode returns the compiler exit status, or -1 when it never ran.
func (r *Result) ExitCode() int {
	if r == nil || r.Outcome == nil {
		return -1
	}
	return r.Outcome.ExitCode
}
