package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/tidyarxiv/internal/artifact"
	"git.home.luguber.info/inful/tidyarxiv/internal/compiler"
	"git.home.luguber.info/inful/tidyarxiv/internal/config"
	"git.home.luguber.info/inful/tidyarxiv/internal/fileset"
	ferrors "git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
	"git.home.luguber.info/inful/tidyarxiv/internal/git"
	"git.home.luguber.info/inful/tidyarxiv/internal/history"
	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
	"git.home.luguber.info/inful/tidyarxiv/internal/metrics"
	"git.home.luguber.info/inful/tidyarxiv/internal/notify"
	"git.home.luguber.info/inful/tidyarxiv/internal/observability"
	"git.home.luguber.info/inful/tidyarxiv/internal/staging"
	"git.home.luguber.info/inful/tidyarxiv/internal/workspace"
)

// BuildFailedMessage points the user at the failure log.
const BuildFailedMessage = "Error building TeX. See build.log for details."

// Runner executes build runs for one resolved configuration.
type Runner struct {
	cfg           *config.Config
	compiler      compiler.Runner
	recorder      metrics.Recorder
	history       history.Store
	notifier      notify.Publisher
	now           func() time.Time
	newID         func() string
	workspaceBase string
	out           io.Writer
}

// NewRunner creates a Runner with the subprocess compiler and no metrics,
// history or notifications.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		cfg:      cfg,
		compiler: compiler.NewInvoker(),
		recorder: metrics.NoopRecorder{},
		history:  history.NoopStore{},
		notifier: notify.NoopPublisher{},
		now:      time.Now,
		newID:    uuid.NewString,
		out:      os.Stdout,
	}
}

// WithCompiler replaces the compiler runner (for testing or alternative backends).
func (r *Runner) WithCompiler(c compiler.Runner) *Runner {
	r.compiler = c
	return r
}

// WithRecorder sets the metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	r.recorder = rec
	return r
}

// WithHistory sets the store each finished run is recorded in.
func (r *Runner) WithHistory(s history.Store) *Runner {
	r.history = s
	return r
}

// WithNotifier sets the publisher for build events.
func (r *Runner) WithNotifier(p notify.Publisher) *Runner {
	r.notifier = p
	return r
}

// WithClock overrides the time source used for the run timestamp.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// WithWorkspaceBase sets the parent directory of staging trees (system temp dir by default).
func (r *Runner) WithWorkspaceBase(dir string) *Runner {
	r.workspaceBase = dir
	return r
}

// WithOutput sets where user-facing messages are printed.
func (r *Runner) WithOutput(w io.Writer) *Runner {
	r.out = w
	return r
}

// Run executes one build. The returned Result is never nil. The error is nil
// only for a fully successful run; a compiler failure yields a build-category
// error after build.log has been written.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := r.now()
	res := &Result{
		BuildID:   r.newID(),
		Started:   started,
		Timestamp: artifact.Timestamp(started),
		Status:    StatusError,
	}
	ctx = observability.WithBuildID(ctx, res.BuildID)
	ctx = observability.WithTarget(ctx, r.cfg.Target)

	err := r.run(ctx, res)

	res.Duration = time.Since(started)
	r.finish(ctx, res, err)
	return res, err
}

func (r *Runner) run(ctx context.Context, res *Result) error {
	cfg := r.cfg

	stageStart := time.Now()
	if err := config.Validate(cfg); err != nil {
		r.recorder.IncStageResult(StageValidate, metrics.ResultFatal)
		return err
	}
	r.recorder.ObserveStageDuration(StageValidate, time.Since(stageStart))
	if cfg.TargetDefaulted {
		observability.InfoContext(ctx, fmt.Sprintf(`No "target" specified in "%s" file. Using "%s".`, cfg.Name(), config.DefaultTarget))
	}

	if rev, err := git.ReadRevision(cfg.Root); err != nil {
		observability.WarnContext(ctx, "Could not determine source revision", logfields.Error(err))
	} else {
		res.Revision = rev.String()
		observability.DebugContext(ctx, "Source revision", logfields.Revision(res.Revision))
	}

	ws := workspace.NewManager(r.workspaceBase).Keep(cfg.KeepStaging)
	if err := ws.Create(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create staging directory").Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			observability.WarnContext(ctx, "Failed to cleanup staging directory", logfields.Error(err))
		}
	}()
	res.StagingDir = ws.GetPath()

	importSet, filterSet, err := r.resolve(ctx)
	if err != nil {
		return err
	}

	if err := r.stage(ctx, res, ws.GetPath(), importSet, filterSet); err != nil {
		return err
	}

	outcome, err := r.build(ctx, ws.GetPath())
	if err != nil {
		return err
	}
	res.Outcome = outcome

	header := artifact.LogHeader{
		BuildID:  res.BuildID,
		Target:   cfg.Target,
		Revision: res.Revision,
		Started:  res.Started,
	}
	packager := &artifact.Packager{
		OutDir:       cfg.OutDir,
		SourceRoot:   cfg.Root,
		Target:       cfg.Target,
		Publish:      cfg.Publish,
		MetadataFile: cfg.MetadataFile,
	}

	if !outcome.Succeeded() {
		res.Status = StatusFailed
		if outcome.Canceled {
			res.Status = StatusCanceled
		}
		logPath, err := packager.WriteFailureLog(header, outcome)
		if err != nil {
			return err
		}
		res.FailureLog = logPath
		return ferrors.BuildError(BuildFailedMessage).
			WithContext("exit_code", outcome.ExitCode).
			WithContext("log", logPath).
			Build()
	}

	return r.pack(ctx, res, packager, ws.GetPath(), header)
}

func (r *Runner) resolve(ctx context.Context) (fileset.Set, fileset.Set, error) {
	ctx = observability.WithStage(ctx, StageResolve)
	stageStart := time.Now()

	importSet, err := fileset.Resolve(r.cfg.Root, r.cfg.Import)
	if err != nil {
		r.recorder.IncStageResult(StageResolve, metrics.ResultFatal)
		return fileset.Set{}, fileset.Set{}, ferrors.WrapError(err, ferrors.CategoryStaging, "failed to resolve import files").Build()
	}
	filterSet, err := fileset.Resolve(r.cfg.Root, r.cfg.Filter)
	if err != nil {
		r.recorder.IncStageResult(StageResolve, metrics.ResultFatal)
		return fileset.Set{}, fileset.Set{}, ferrors.WrapError(err, ferrors.CategoryStaging, "failed to resolve filter files").Build()
	}

	r.recorder.SetFileCount("import", importSet.Len())
	r.recorder.SetFileCount("filter", filterSet.Len())
	r.recorder.ObserveStageDuration(StageResolve, time.Since(stageStart))
	r.recorder.IncStageResult(StageResolve, metrics.ResultSuccess)
	observability.DebugContext(ctx, "Resolved file sets",
		slog.Int("import", importSet.Len()),
		slog.Int("filter", filterSet.Len()))
	return importSet, filterSet, nil
}

func (r *Runner) stage(ctx context.Context, res *Result, dir string, importSet, filterSet fileset.Set) error {
	ctx = observability.WithStage(ctx, StageStage)
	observability.InfoContext(ctx, "Importing files", logfields.Count(importSet.Len()))

	report, err := staging.Assemble(ctx, staging.Request{
		SourceRoot: r.cfg.Root,
		StagingDir: dir,
		Import:     importSet,
		Filter:     filterSet,
	})
	if err != nil {
		r.recorder.IncStageResult(StageStage, stageResult(err))
		return err
	}
	res.Imported = report.Imported
	res.Sanitized = report.Sanitized
	r.recorder.ObserveStageDuration(StageStage, report.Duration)
	r.recorder.IncStageResult(StageStage, metrics.ResultSuccess)
	return nil
}

func (r *Runner) build(ctx context.Context, dir string) (*compiler.Outcome, error) {
	ctx = observability.WithStage(ctx, StageBuild)
	argv := r.cfg.BuildCommand.Expand(r.cfg.Target)
	observability.InfoContext(ctx, "Building TeX", logfields.Command(argv))

	outcome, err := r.compiler.Run(ctx, dir, argv)
	if err != nil {
		r.recorder.IncStageResult(StageBuild, metrics.ResultFatal)
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to invoke build command").Build()
	}
	r.recorder.ObserveStageDuration(StageBuild, outcome.Duration)

	switch {
	case outcome.Canceled:
		r.recorder.IncStageResult(StageBuild, metrics.ResultCanceled)
		observability.WarnContext(ctx, "Build interrupted", logfields.ExitCode(outcome.ExitCode))
	case !outcome.Succeeded():
		r.recorder.IncStageResult(StageBuild, metrics.ResultFatal)
		observability.ErrorContext(ctx, "Build command failed", logfields.ExitCode(outcome.ExitCode))
	default:
		r.recorder.IncStageResult(StageBuild, metrics.ResultSuccess)
		observability.InfoContext(ctx, "TeX built", logfields.DurationMS(float64(outcome.Duration.Milliseconds())))
	}
	return outcome, nil
}

func (r *Runner) pack(ctx context.Context, res *Result, packager *artifact.Packager, dir string, header artifact.LogHeader) error {
	ctx = observability.WithStage(ctx, StagePackage)
	stageStart := time.Now()

	bundle, err := packager.Package(ctx, dir, res.Timestamp, header, res.Outcome)
	res.Bundle = bundle
	if err != nil {
		r.recorder.IncStageResult(StagePackage, metrics.ResultFatal)
		return err
	}
	r.recorder.ObserveStageDuration(StagePackage, time.Since(stageStart))
	r.recorder.IncStageResult(StagePackage, metrics.ResultSuccess)
	r.recorder.SetFileCount("publish", len(bundle.Published))
	if info, statErr := os.Stat(bundle.Archive); statErr == nil {
		r.recorder.ObserveArchiveSize(info.Size())
	}

	res.Status = StatusSuccess
	for _, w := range bundle.Warnings {
		_, _ = fmt.Fprintf(r.out, "Warning: %s\n", w)
	}
	if bundle.Metadata != "" {
		_, _ = fmt.Fprintf(r.out, "Metadata file copied: %s\n", bundle.Metadata)
	}
	_, _ = fmt.Fprintf(r.out, "Tarball created: %s\n", bundle.Archive)
	_, _ = fmt.Fprintf(r.out, "PDF created: %s\n", bundle.PDF)
	_, _ = fmt.Fprintf(r.out, "Build log saved: %s\n", bundle.Log)
	return nil
}

// finish records the run in metrics, history and notifications. Failures
// here are logged and never change the run's result.
func (r *Runner) finish(ctx context.Context, res *Result, runErr error) {
	if res.Status == StatusError && errors.Is(runErr, context.Canceled) {
		res.Status = StatusCanceled
	}

	r.recorder.ObserveBuildDuration(res.Duration)
	r.recorder.IncBuildOutcome(outcomeLabel(res.Status))

	// Bookkeeping must still happen when ctx was canceled mid-build.
	bg := context.WithoutCancel(ctx)

	entry := history.Entry{
		BuildID:   res.BuildID,
		Target:    r.cfg.Target,
		Started:   res.Started,
		Duration:  res.Duration,
		Outcome:   string(res.Status),
		ExitCode:  res.ExitCode(),
		Revision:  res.Revision,
		Log:       res.FailureLog,
		ConfigDir: r.cfg.Root,
	}
	event := notify.Event{
		BuildID:    res.BuildID,
		Target:     r.cfg.Target,
		Outcome:    string(res.Status),
		ExitCode:   res.ExitCode(),
		Started:    res.Started,
		DurationMS: res.Duration.Milliseconds(),
		Revision:   res.Revision,
		Log:        res.FailureLog,
	}
	if res.Bundle != nil && res.Succeeded() {
		entry.Archive, entry.Log = res.Bundle.Archive, res.Bundle.Log
		event.Archive, event.PDF, event.Log = res.Bundle.Archive, res.Bundle.PDF, res.Bundle.Log
	}

	if err := r.history.Record(bg, entry); err != nil {
		observability.WarnContext(ctx, "Failed to record build history", logfields.Error(err))
	}
	if err := r.notifier.Publish(bg, event); err != nil {
		observability.WarnContext(ctx, "Failed to publish build event", logfields.Error(err))
	}

	observability.InfoContext(ctx, "Run finished",
		slog.String("status", string(res.Status)),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
}

func stageResult(err error) metrics.ResultLabel {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return metrics.ResultCanceled
	}
	return metrics.ResultFatal
}

func outcomeLabel(s Status) metrics.BuildOutcomeLabel {
	switch s {
	case StatusSuccess:
		return metrics.BuildOutcomeSuccess
	case StatusFailed:
		return metrics.BuildOutcomeFailed
	case StatusCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeError
	}
}
