package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
)

// ConfigPath picks the configuration file: an explicit flag value wins, then
// the TIDYARXIV_CONFIG_NAME environment variable, then DefaultName.
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if name := os.Getenv(EnvConfigName); name != "" {
		return name
	}
	return DefaultName
}

// Load reads and resolves the configuration at path. The project root is the
// directory holding the file. Environment files (.env, .env.local) next to it
// are loaded first without overriding variables that are already set, and
// ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid configuration path").Build()
	}
	root := filepath.Dir(abs)
	name := filepath.Base(abs)

	loadEnvFiles(root)

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError(fmt.Sprintf(`No "%s" file found. Create a "%s" file in the root of your project.`, name, name)).
				WithContext("path", abs).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", abs).
			Build()
	}

	raw, err := Decode(name, []byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, fmt.Sprintf(`Could not parse "%s"`, name)).
			Fatal().
			WithContext("path", abs).
			Build()
	}

	cfg := Resolve(*raw, root)
	cfg.Path = abs
	return cfg, nil
}

// Decode parses configuration content. Names ending in .yaml or .yml are
// YAML; everything else is JSON.
func Decode(name string, data []byte) (*File, error) {
	var raw File
	if isYAML(name) {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return &raw, nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty configuration, expected a JSON object such as {}")
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func loadEnvFiles(root string) {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load environment file", logfields.Path(p), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(p))
	}
}
