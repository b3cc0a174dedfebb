package main

import (
	"fmt"
	"io"

	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/urfave/cli/v3"
)

func writeOutputf(w io.Writer, format string, args ...any) {
	if w != nil {
		_, _ = fmt.Fprintf(w, format, args...)
	}
}

// infraConfig builds the configuration the CDK app would see for the
// environment selected on the command line.
func infraConfig(cmd *cli.Command, cfg config.Config) (ltdenv.Config, error) {
	vars, err := ltdenv.ParseVariables()
	if err != nil {
		return ltdenv.Config{}, err
	}
	vars.DeployEnv = string(cfg.Env(cmd.String("env")))
	return ltdenv.NewConfig(vars)
}
