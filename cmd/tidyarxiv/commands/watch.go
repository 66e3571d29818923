package commands

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/tidyarxiv/internal/config"
	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
	"git.home.luguber.info/inful/tidyarxiv/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce  time.Duration `default:"500ms" help:"Quiet period after the last change before rebuilding"`
	NoInitial bool          `name:"no-initial" help:"Do not build before the first change"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	svc := openServices(cfg)
	defer svc.Close()

	build := func(ctx context.Context) error {
		// Configuration is re-read for every build so edits apply without a restart.
		current, err := config.Load(cfg.Path)
		if err != nil {
			return err
		}
		_, err = svc.runner(current, g.out()).Run(ctx)
		svc.flushMetrics()
		return err
	}

	watcher := watch.New(watch.Options{
		Root:         cfg.Root,
		Debounce:     w.Debounce,
		SkipDirs:     []string{cfg.OutDir},
		Relevant:     relevantPaths(cfg),
		InitialBuild: !w.NoInitial,
	}, build)

	slog.Info("Watching project", logfields.Path(cfg.Root), logfields.Target(cfg.Target))
	return watcher.Run(g.ctx())
}

// relevantPaths selects the changes that can affect a build: imported
// sources, the configuration file and the metadata file.
func relevantPaths(cfg *config.Config) func(rel string) bool {
	configRel, _ := filepath.Rel(cfg.Root, cfg.Path)
	configRel = filepath.ToSlash(configRel)
	metadataRel := filepath.ToSlash(cfg.MetadataFile)
	return func(rel string) bool {
		return rel == configRel || (metadataRel != "" && rel == metadataRel) || cfg.Import.Match(rel)
	}
}
