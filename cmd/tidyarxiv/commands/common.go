package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tidyarxiv/internal/config"
	"git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
	"git.home.luguber.info/inful/tidyarxiv/internal/history"
	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
	"git.home.luguber.info/inful/tidyarxiv/internal/metrics"
	"git.home.luguber.info/inful/tidyarxiv/internal/notify"
	"git.home.luguber.info/inful/tidyarxiv/internal/pipeline"
)

// EnvLogLevel overrides the default log level when --verbose is not given.
const EnvLogLevel = "TIDYARXIV_LOG_LEVEL"

// Global carries process-wide state into subcommands.
type Global struct {
	// Context is canceled on SIGINT/SIGTERM.
	Context context.Context
	// Out receives user-facing messages.
	Out io.Writer
}

func (g *Global) ctx() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (default: $TIDYARXIV_CONFIG_NAME or tidyarxiv.cfg)"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" enum:"text,json" default:"text" help:"Log output format (text|json)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"1" help:"Stage, build and package the project (default command)"`
	Init    InitCmd    `cmd:"" help:"Write a configuration file with every default spelled out"`
	Files   FilesCmd   `cmd:"" help:"List the files each glob set resolves to, without building"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever project sources change"`
	History HistoryCmd `cmd:"" help:"Show recorded builds from the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// ConfigPath returns the configuration file selected by flag or environment.
func (c *CLI) ConfigPath() string {
	return config.ConfigPath(c.Config)
}

// parseLogLevel maps --verbose and TIDYARXIV_LOG_LEVEL to a level. The flag wins.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads the configuration selected on the command line.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.ConfigPath())
}

// services holds the optional collaborators configured for a project.
type services struct {
	recorder    metrics.Recorder
	prom        *metrics.PrometheusRecorder
	metricsFile string
	history     history.Store
	notifier    notify.Publisher
}

// openServices wires metrics, history and notifications from cfg. Optional
// services that fail to start are logged and replaced by no-ops; a build is
// never blocked by bookkeeping.
func openServices(cfg *config.Config) *services {
	s := &services{
		recorder: metrics.NoopRecorder{},
		history:  history.NoopStore{},
		notifier: notify.NoopPublisher{},
	}

	if cfg.MetricsFile != "" {
		s.prom = metrics.NewPrometheusRecorder(nil)
		s.recorder = s.prom
		s.metricsFile = cfg.MetricsFile
	}

	if cfg.HistoryDB != "" {
		store, err := history.NewSQLiteStore(cfg.HistoryDB)
		if err != nil {
			slog.Warn("Build history disabled", logfields.Path(cfg.HistoryDB), logfields.Error(err))
		} else {
			s.history = store
		}
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Build notifications disabled", slog.String("url", cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			s.notifier = pub
		}
	}
	return s
}

// runner returns a pipeline runner for cfg using these services.
func (s *services) runner(cfg *config.Config, out io.Writer) *pipeline.Runner {
	return pipeline.NewRunner(cfg).
		WithRecorder(s.recorder).
		WithHistory(s.history).
		WithNotifier(s.notifier).
		WithOutput(out)
}

// flushMetrics writes the metrics textfile, if one is configured.
func (s *services) flushMetrics() {
	if s.prom == nil {
		return
	}
	if err := s.prom.WriteTextfile(s.metricsFile); err != nil {
		slog.Warn("Failed to write metrics", logfields.Path(s.metricsFile), logfields.Error(err))
	}
}

func (s *services) Close() {
	s.flushMetrics()
	s.notifier.Close()
	if err := s.history.Close(); err != nil {
		slog.Warn("Failed to close history database", logfields.Error(err))
	}
}

// requireHistory returns a config error when no history database is configured.
func requireHistory(cfg *config.Config) error {
	if cfg.HistoryDB != "" {
		return nil
	}
	return errors.ConfigError(`No "history_db" configured. Add a "history_db" path to your "` + cfg.Name() + `" file.`).Build()
}
