// Command ltd is the development task runner of the load-test-demo project.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "ltd",
		Usage:   "Development task runner for the load-test-demo project",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Target environment (dev, tst, prd), unknown values fall back to tst",
				Sources: cli.EnvVars("DEPLOY_ENV"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Log executed commands and visited files",
				Sources: cli.EnvVars("LTD_DEBUG"),
			},
		},
		Commands: []*cli.Command{
			initCmd(),
			envCmd(),
			planCmd(),
			preflightCmd(),
			cdkCmd(),
			backendCmd(),
			checkCmd(),
			devCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logs, err := newLogger(cmd.Bool("debug"))
			if err != nil {
				return ctx, err
			}
			return withLogger(ctx, logs), nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
