package main

import (
	"context"

	"github.com/penysho/load-test-demo/cmd/ltd/internal/cmdexec"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/urfave/cli/v3"
)

func devCmd() *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Development commands",
		Commands: []*cli.Command{
			{
				Name:   "fmt",
				Usage:  "Format Go code using golangci-lint",
				Action: config.RunWithConfig(withGoExecutor(doDevFmt)),
			},
		},
	}
}

func doDevFmt(ctx context.Context, exec cmdexec.Executor) error {
	return exec.Run(ctx, "golangci-lint", append([]string{"fmt"}, goPackages...)...)
}
