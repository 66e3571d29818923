package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/tidyarxiv/internal/fileset"
	ferrors "git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
)

// Validate checks the preconditions of a run. It touches nothing on disk and
// runs before any staging: the target document must exist, the output
// directory must exist, every pattern must parse and the build command must
// not be empty.
func Validate(cfg *Config) error {
	if err := validateTarget(cfg); err != nil {
		return err
	}
	if err := validateOutDir(cfg); err != nil {
		return err
	}
	for name, spec := range map[string]fileset.Spec{
		"files":        cfg.Import,
		"filter_files": cfg.Filter,
		"arxiv_files":  cfg.Publish,
	} {
		if err := fileset.ValidatePatterns(spec); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, fmt.Sprintf(`Invalid glob pattern in "%s"`, name)).
				Fatal().
				WithContext("key", name).
				Build()
		}
	}
	if cfg.BuildCommand.IsZero() {
		return ferrors.ConfigError(fmt.Sprintf(`The "build_command" in your "%s" file is empty.`, cfg.Name())).Build()
	}
	return nil
}

func validateTarget(cfg *Config) error {
	if cfg.Target == "" || strings.ContainsAny(cfg.Target, `/\`) {
		return ferrors.ConfigError(fmt.Sprintf(`Invalid "target" %q in your "%s" file: use the base name of a .tex file in the project root.`, cfg.Target, cfg.Name())).
			WithContext("target", cfg.Target).
			Build()
	}

	path := filepath.Join(cfg.Root, cfg.TargetFile())
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return nil
	}

	msg := fmt.Sprintf(`No "%s" file was found. Check the "target" in your "%s" file.`, cfg.TargetFile(), cfg.Name())
	if cfg.TargetDefaulted {
		msg = fmt.Sprintf(`No "%s" file found. Specify a "target" in your "%s" file.`, cfg.TargetFile(), cfg.Name())
	}
	return ferrors.ConfigError(msg).WithContext("path", path).Build()
}

func validateOutDir(cfg *Config) error {
	if info, err := os.Stat(cfg.OutDir); err == nil && info.IsDir() {
		return nil
	}
	return ferrors.ConfigError(fmt.Sprintf(`Output directory "%s" not found. Check the "outdir" in your "%s" file.`, cfg.OutDir, cfg.Name())).
		WithContext("path", cfg.OutDir).
		Build()
}
