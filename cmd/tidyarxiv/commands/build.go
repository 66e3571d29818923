package commands

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	KeepStaging bool `name:"keep-staging" help:"Leave the staging directory on disk and log its path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if b.KeepStaging {
		cfg.KeepStaging = true
	}

	svc := openServices(cfg)
	defer svc.Close()

	_, err = svc.runner(cfg, g.out()).Run(g.ctx())
	return err
}
