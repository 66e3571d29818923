// Package compiler runs the external document compiler against a staging tree.
//
// A non-zero exit is a normal outcome, not an error: Run reports it through
// Outcome and leaves the reaction to the caller. The compiler is invoked once
// per run, with no retries and no timeout of its own; cancel the context to
// stop it, which is reported as a failed outcome.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
)

// ExitNotStarted is reported when the command could not be started at all,
// matching what a shell reports for an unknown command.
const ExitNotStarted = 127

// Outcome is the captured result of one compiler invocation.
type Outcome struct {
	Argv     []string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
	Canceled bool
}

// Succeeded reports a zero exit status of a run that was not canceled.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.ExitCode == 0 && !o.Canceled
}

// Runner abstracts how the compiler is executed so tests and callers can swap
// the external binary for something else.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) (*Outcome, error)
}

// Invoker executes the compiler as a subprocess.
type Invoker struct {
	// Env, when non-nil, replaces the inherited environment.
	Env []string
	// WaitDelay bounds how long Run waits for output pipes after the process exits.
	WaitDelay time.Duration
}

// NewInvoker returns an Invoker inheriting the process environment.
func NewInvoker() *Invoker {
	return &Invoker{WaitDelay: 5 * time.Second}
}

// Run executes argv with dir as working directory, capturing both streams fully.
// The returned error is non-nil only for invalid input; process failures of
// any kind are reported in the Outcome.
func (i *Invoker) Run(ctx context.Context, dir string, argv []string) (*Outcome, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if i.Env != nil {
		cmd.Env = i.Env
	}
	cmd.WaitDelay = i.WaitDelay
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Invoking compiler", logfields.Command(argv), logfields.Path(dir))
	start := time.Now()
	err := cmd.Run()

	outcome := &Outcome{
		Argv:     argv,
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		outcome.ExitCode = 0
	case errors.As(err, &exitErr):
		outcome.ExitCode = exitErr.ExitCode()
	default:
		// The process never ran (binary missing, not executable, bad dir).
		outcome.ExitCode = ExitNotStarted
		fmt.Fprintf(&stderr, "tidyarxiv: could not start %s: %v\n", argv[0], err)
	}
	if ctx.Err() != nil {
		outcome.Canceled = true
		if outcome.ExitCode == 0 {
			outcome.ExitCode = -1
		}
		fmt.Fprintf(&stderr, "tidyarxiv: build interrupted: %v\n", ctx.Err())
	}

	outcome.Stdout = stdout.Bytes()
	outcome.Stderr = stderr.Bytes()

	slog.Debug("Compiler finished",
		logfields.ExitCode(outcome.ExitCode),
		logfields.DurationMS(float64(outcome.Duration.Milliseconds())))
	return outcome, nil
}
