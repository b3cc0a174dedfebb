package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/initwizard"
	"github.com/urfave/cli/v3"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Write the " + config.FileName + " project file",
		ArgsUsage: "[directory]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "accessible",
				Usage: "Ask questions as plain text prompts",
			},
			&cli.BoolFlag{
				Name:  "defaults",
				Usage: "Write the defaults without asking",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing project file",
			},
		},
		Action: runInit,
	}
}

type InitOptions struct {
	Dir    string
	Force  bool
	Wizard *initwizard.Wizard
	Output io.Writer
}

func runInit(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = "."
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrap(err, "failed to get absolute path")
	}

	var runner initwizard.FormRunner = initwizard.NewInteractiveRunner()
	if cmd.Bool("accessible") {
		runner = initwizard.NewAccessibleRunner(os.Stdout, os.Stdin)
	}

	opts := InitOptions{
		Dir:    absDir,
		Force:  cmd.Bool("force"),
		Output: os.Stdout,
	}
	if !cmd.Bool("defaults") {
		opts.Wizard = initwizard.New(initwizard.NewFormBuilder(), runner)
	}

	return doInit(ctx, opts)
}

func doInit(ctx context.Context, opts InitOptions) error {
	path := filepath.Join(opts.Dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return errors.Newf("%s already exists, use --force to overwrite it", path)
	}

	defaults := config.Default()
	if existing, err := config.NewLoader().Load(path); err == nil {
		defaults = existing
	}

	cfg := defaults
	if opts.Wizard != nil {
		var err error
		if cfg, err = opts.Wizard.Run(ctx, defaults); err != nil {
			return errors.Wrap(err, "init wizard failed")
		}
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create directory")
	}
	if err := config.WriteToFile(opts.Dir, cfg, config.NewWriter()); err != nil {
		return err
	}

	writeOutputf(opts.Output, "Wrote %s (default environment %s)\n", path, cfg.DefaultEnv)
	return nil
}
