package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/tidyarxiv/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"10" help:"Number of builds to show (0 for all)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := requireHistory(cfg); err != nil {
		return err
	}

	store, err := history.NewSQLiteStore(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(g.ctx(), h.Limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(g.out(), "No builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tTARGET\tOUTCOME\tEXIT\tDURATION\tREVISION\tARTIFACT")
	for _, e := range entries {
		artifact := e.Archive
		if artifact == "" {
			artifact = e.Log
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			e.Started.Local().Format(time.DateTime),
			e.Target,
			e.Outcome,
			e.ExitCode,
			e.Duration.Round(time.Millisecond),
			e.Revision,
			artifact)
	}
	return tw.Flush()
}
