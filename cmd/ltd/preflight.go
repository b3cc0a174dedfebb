package main

import (
	"context"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudformation/cloudformationiface"
	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdstack"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func preflightCmd() *cli.Command {
	return &cli.Command{
		Name:   "preflight",
		Usage:  "Check that every export the stacks import exists in the target account",
		Action: config.RunWithConfig(runPreflight),
	}
}

func runPreflight(ctx context.Context, cmd *cli.Command, cfg config.Config) error {
	icfg, err := infraConfig(cmd, cfg)
	if err != nil {
		return err
	}

	sess, err := newAWSSession(cfg, icfg.Region)
	if err != nil {
		return err
	}

	return doPreflight(ctx, logger(ctx), icfg, cloudformation.New(sess), os.Stdout)
}

func doPreflight(
	ctx context.Context, logs *zap.Logger, cfg ltdenv.Config, api cloudformationiface.CloudFormationAPI, w io.Writer,
) error {
	d, err := ltdstack.Build(cfg)
	if err != nil {
		return err
	}

	exports, err := listExports(ctx, api)
	if err != nil {
		return err
	}
	logs.Debug("listed exports", zap.Int("count", len(exports)), zap.String("region", cfg.Region))

	missing := lo.Filter(d.Graph.Imports(), func(name string, _ int) bool {
		_, ok := exports[name]
		return !ok
	})
	for _, name := range d.Graph.Imports() {
		if value, ok := exports[name]; ok {
			writeOutputf(w, "ok       %s = %s\n", name, value)
		} else {
			writeOutputf(w, "missing  %s\n", name)
		}
	}

	if len(missing) > 0 {
		return errors.Newf("%d of %d imported exports are missing in %s, deploy the shared VPC stack first",
			len(missing), len(d.Graph.Imports()), cfg.Region)
	}
	return nil
}
