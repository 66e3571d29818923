package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tidyarxiv/cmd/tidyarxiv/commands"
	"git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
	"git.home.luguber.info/inful/tidyarxiv/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("tidyarxiv"),
		kong.Description("Stage, sanitize, build and package a TeX project for arXiv submission."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := parser.Run(&commands.Global{Context: ctx, Out: os.Stdout}, cli)
	stop()

	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
