package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/tidyarxiv/internal/compiler"
)

// Example returns a configuration spelling out every default.
func Example() File {
	target := DefaultTarget
	return File{
		Target:             &target,
		OutDir:             DefaultOutDir,
		Files:              orDefault(nil, defaultFiles),
		FilesExclude:       []string{},
		FilterFiles:        orDefault(nil, defaultFilterFiles),
		FilterFilesExclude: []string{},
		ArxivFilesInclude:  orDefault(nil, defaultArxivInclude),
		ArxivFilesExclude:  orDefault(nil, defaultArxivExclude),
		BuildCommand:       compiler.MustParseCommand(compiler.DefaultCommand),
	}
}

// Init writes an example configuration to path. YAML is written for .yaml
// and .yml names, JSON otherwise.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	example := Example()
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(&example)
	} else {
		data, err = json.MarshalIndent(&example, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
