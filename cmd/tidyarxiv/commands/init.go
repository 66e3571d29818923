package commands

import (
	"fmt"

	"git.home.luguber.info/inful/tidyarxiv/internal/config"
)

// InitCmd implements the 'init' command. The format follows the file name:
// .yaml and .yml are written as YAML, anything else as JSON.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.ConfigPath()
	out := g.out()
	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
