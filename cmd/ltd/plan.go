package main

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdplan"
	"github.com/penysho/load-test-demo/ltdstack"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func planCmd() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Print the compiled stacks of the target environment without the CDK toolkit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (yaml, json)",
				Value: "yaml",
				Validator: func(s string) error {
					if !lo.Contains([]string{"yaml", "json"}, s) {
						return errors.Newf("unsupported format %q", s)
					}
					return nil
				},
			},
			&cli.StringFlag{
				Name:  "stack",
				Usage: "Only print the stack with this name",
			},
		},
		Action: config.RunWithConfig(runPlan),
	}
}

type planOptions struct {
	Format string
	Stack  string
	Output io.Writer
}

func runPlan(ctx context.Context, cmd *cli.Command, cfg config.Config) error {
	icfg, err := infraConfig(cmd, cfg)
	if err != nil {
		return err
	}
	return doPlan(icfg, planOptions{
		Format: cmd.String("format"),
		Stack:  cmd.String("stack"),
		Output: os.Stdout,
	})
}

func doPlan(cfg ltdenv.Config, opts planOptions) error {
	d, err := ltdstack.Build(cfg)
	if err != nil {
		return err
	}

	docs, err := ltdplan.DocumentGraph(d.Graph)
	if err != nil {
		return err
	}

	if opts.Stack != "" {
		docs = lo.Filter(docs, func(doc map[string]any, _ int) bool { return doc["StackName"] == opts.Stack })
		if len(docs) == 0 {
			names := lo.Map(d.Graph.Stacks(), func(s *ltdplan.Stack, _ int) string { return s.Name })
			return errors.Newf("stack %q is not part of the %s plan, expected one of %v", opts.Stack, cfg.Env, names)
		}
	}

	var data []byte
	switch opts.Format {
	case "json":
		data, err = yaml.MarshalWithOptions(docs, yaml.JSON())
	default:
		data, err = yaml.Marshal(docs)
	}
	if err != nil {
		return errors.Wrap(err, "failed to encode plan")
	}

	_, err = opts.Output.Write(data)
	return err
}
