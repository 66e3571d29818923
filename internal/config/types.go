package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/tidyarxiv/internal/compiler"
	"git.home.luguber.info/inful/tidyarxiv/internal/fileset"
)

// File is the on-disk configuration schema. Every key is optional; a nil
// slice means "not set" and selects the default, an empty list is an explicit
// empty selection.
type File struct {
	Target *string `json:"target,omitempty" yaml:"target,omitempty"`
	OutDir string  `json:"outdir,omitempty" yaml:"outdir,omitempty"`

	Files              []string `json:"files,omitempty" yaml:"files,omitempty"`
	FilesExclude       []string `json:"files_exclude,omitempty" yaml:"files_exclude,omitempty"`
	ImportFilesExclude []string `json:"import_files_exclude,omitempty" yaml:"import_files_exclude,omitempty"`
	FilterFiles        []string `json:"filter_files,omitempty" yaml:"filter_files,omitempty"`
	FilterFilesExclude []string `json:"filter_files_exclude,omitempty" yaml:"filter_files_exclude,omitempty"`
	ArxivFilesInclude  []string `json:"arxiv_files_include,omitempty" yaml:"arxiv_files_include,omitempty"`
	ArxivFilesExclude  []string `json:"arxiv_files_exclude,omitempty" yaml:"arxiv_files_exclude,omitempty"`

	BuildCommand compiler.Command `json:"build_command,omitzero" yaml:"build_command,omitempty"`
	MetadataFile string           `json:"metadata_file,omitempty" yaml:"metadata_file,omitempty"`

	HistoryDB   string        `json:"history_db,omitempty" yaml:"history_db,omitempty"`
	MetricsFile string        `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
	Notify      *NotifyConfig `json:"notify,omitempty" yaml:"notify,omitempty"`
	KeepStaging bool          `json:"keep_staging,omitempty" yaml:"keep_staging,omitempty"`
}

// NotifyConfig enables build event publishing.
type NotifyConfig struct {
	NATSURL string `json:"nats_url" yaml:"nats_url"`
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
}

// Config is the fully resolved configuration of one run. All paths are absolute.
type Config struct {
	// Path is the configuration file the values were read from.
	Path string
	// Root is the project directory: the directory holding the config file.
	Root string

	Target string
	// TargetDefaulted is true when no target was configured.
	TargetDefaulted bool
	OutDir          string

	Import  fileset.Spec
	Filter  fileset.Spec
	Publish fileset.Spec

	BuildCommand compiler.Command
	MetadataFile string

	HistoryDB   string
	MetricsFile string
	Notify      NotifyConfig
	KeepStaging bool
}

// TargetFile returns the target document file name, "{target}.tex".
func (c *Config) TargetFile() string {
	return c.Target + ".tex"
}

// Name returns the config file base name for user-facing messages.
func (c *Config) Name() string {
	if c.Path == "" {
		return DefaultName
	}
	return filepath.Base(c.Path)
}
