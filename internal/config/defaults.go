package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/tidyarxiv/internal/compiler"
	"git.home.luguber.info/inful/tidyarxiv/internal/fileset"
)

const (
	// DefaultName is the configuration file looked up in the project root.
	DefaultName = "tidyarxiv.cfg"
	// EnvConfigName overrides DefaultName.
	EnvConfigName = "TIDYARXIV_CONFIG_NAME"

	DefaultTarget  = "main"
	DefaultOutDir  = "."
	DefaultSubject = "tidyarxiv.build"
)

// Default glob lists. Callers always receive copies. Excludes use shell
// wildcards where "**/*.bib" needs a directory, so "*.bib" covers the root.
var (
	defaultFiles        = []string{"**/*.tex", "**/*.sty", "**/*.bib"}
	defaultFilterFiles  = []string{"**/*.tex", "**/*.sty"}
	defaultArxivInclude = []string{"**/*.bbl"}
	defaultArxivExclude = []string{"**/*.bib", "*.bib"}
)

func orDefault(v, def []string) []string {
	if v == nil {
		return append([]string(nil), def...)
	}
	return append([]string(nil), v...)
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Resolve applies defaults to raw and returns the typed configuration. root is
// the project directory; relative paths in raw are resolved against it.
func Resolve(raw File, root string) *Config {
	cfg := &Config{Root: root}

	cfg.Target = DefaultTarget
	cfg.TargetDefaulted = true
	if raw.Target != nil {
		cfg.Target = *raw.Target
		cfg.TargetDefaulted = false
	}

	cfg.OutDir = raw.OutDir
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	cfg.OutDir = absUnder(root, cfg.OutDir)

	files := orDefault(raw.Files, defaultFiles)
	filesExclude := orDefault(raw.FilesExclude, nil)

	cfg.Import = fileset.Spec{
		Include: files,
		Exclude: concat(filesExclude, raw.ImportFilesExclude),
	}
	cfg.Filter = fileset.Spec{
		Include: orDefault(raw.FilterFiles, defaultFilterFiles),
		Exclude: orDefault(raw.FilterFilesExclude, nil),
	}
	cfg.Publish = fileset.Spec{
		Include: concat(files, orDefault(raw.ArxivFilesInclude, defaultArxivInclude)),
		Exclude: concat(filesExclude, orDefault(raw.ArxivFilesExclude, defaultArxivExclude)),
	}

	cfg.BuildCommand = raw.BuildCommand
	if cfg.BuildCommand.IsZero() {
		cfg.BuildCommand = compiler.MustParseCommand(compiler.DefaultCommand)
	}

	cfg.MetadataFile = raw.MetadataFile
	if raw.HistoryDB != "" {
		cfg.HistoryDB = absUnder(root, raw.HistoryDB)
	}
	if raw.MetricsFile != "" {
		cfg.MetricsFile = absUnder(root, raw.MetricsFile)
	}
	if raw.Notify != nil {
		cfg.Notify = *raw.Notify
	}
	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultSubject
	}
	cfg.KeepStaging = raw.KeepStaging
	return cfg
}

func absUnder(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
