package commands

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/tidyarxiv/internal/fileset"
	"git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
)

// FilesCmd implements the 'files' command: it prints the resolved import and
// filter sets and the publish candidates present in the source tree. Files
// generated by the build (such as .bbl) only appear in the real archive.
type FilesCmd struct{}

func (f *FilesCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	out := g.out()
	sections := []struct {
		title string
		spec  fileset.Spec
	}{
		{"Import", cfg.Import},
		{"Filter", cfg.Filter},
		{"Publish (source tree)", cfg.Publish},
	}
	for _, s := range sections {
		set, err := fileset.Resolve(cfg.Root, s.spec)
		if err != nil {
			return errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("failed to resolve %s files", s.title)).Fatal().Build()
		}
		printSet(out, s.title, s.spec, set)
	}
	return nil
}

func printSet(out io.Writer, title string, spec fileset.Spec, set fileset.Set) {
	_, _ = fmt.Fprintf(out, "%s (%d files)\n", title, set.Len())
	_, _ = fmt.Fprintf(out, "  include: %v\n", spec.Include)
	_, _ = fmt.Fprintf(out, "  exclude: %v\n", spec.Exclude)
	for _, rel := range set.Sorted() {
		_, _ = fmt.Fprintf(out, "\t%s\n", rel)
	}
}
