package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudformation/cloudformationiface"
	"github.com/aws/aws-sdk-go/service/ecr"
	"github.com/aws/aws-sdk-go/service/ecr/ecriface"
	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/cmdexec"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/dirhash"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdstack/ltdrepos"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func backendCmd() *cli.Command {
	return &cli.Command{
		Name:  "backend",
		Usage: "Backend service commands",
		Commands: []*cli.Command{
			{
				Name:  "build-and-push",
				Usage: "Build the backend image and push it to the environment's ECR repository",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Target platform for the build (defaults to the project file)",
					},
				},
				Action: config.RunWithConfig(runBackendBuildAndPush),
			},
			{
				Name:   "hash",
				Usage:  "Compute content-based hash of the backend build context (respects .dockerignore)",
				Action: config.RunWithConfig(runBackendHash),
			},
		},
	}
}

type backendBuildAndPushOptions struct {
	Env       ltdenv.Config
	Platform  string
	StackName string
	CFN       cloudformationiface.CloudFormationAPI
	ECR       ecriface.ECRAPI
	Output    io.Writer
	ErrOut    io.Writer
}

func runBackendBuildAndPush(ctx context.Context, cmd *cli.Command, cfg config.Config) error {
	icfg, err := infraConfig(cmd, cfg)
	if err != nil {
		return err
	}

	sess, err := newAWSSession(cfg, icfg.Region)
	if err != nil {
		return err
	}

	platform := cmd.String("platform")
	if platform == "" {
		platform = cfg.Inner.Platform
	}

	return doBackendBuildAndPush(ctx, logger(ctx), cmdexec.New(cfg, logger(ctx)), cfg, backendBuildAndPushOptions{
		Env:       icfg,
		Platform:  platform,
		StackName: icfg.StackName(ltdenv.KindApplication),
		CFN:       cloudformation.New(sess),
		ECR:       ecr.New(sess),
		Output:    os.Stdout,
		ErrOut:    os.Stderr,
	})
}

func doBackendBuildAndPush(
	ctx context.Context, logs *zap.Logger, exec cmdexec.Executor, cfg config.Config, opts backendBuildAndPushOptions,
) error {
	exec = exec.WithOutput(opts.Output, opts.ErrOut)

	repoURI, err := stackOutput(ctx, opts.CFN, opts.StackName, ltdrepos.RepositoryURIOutputKey)
	if err != nil {
		return errors.Wrap(err, "failed to get ECR repository URI from stack outputs")
	}

	hash, err := dirhash.New(logs).Hash(backendBuildContext(cfg))
	if err != nil {
		return err
	}

	login, err := ecrLogin(ctx, opts.ECR)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(repoURI, login.Registry+"/") {
		logs.Warn("repository is not in the authorized registry",
			zap.String("repository", repoURI), zap.String("registry", login.Registry))
	}

	if err := exec.RunWithStdin(ctx, strings.NewReader(login.Password), "docker", "login",
		"--username", login.Username,
		"--password-stdin",
		login.Registry,
	); err != nil {
		return errors.Wrap(err, "docker login to ECR failed")
	}

	tags := []string{repoURI + ":" + hash, repoURI + ":latest"}
	logs.Info("building backend image", zap.Stringer("env", opts.Env.Env), zap.Strings("tags", tags))

	if err := exec.Run(ctx, "docker", "build",
		"--file", cfg.Dockerfile(),
		"--platform", opts.Platform,
		"--tag", tags[0],
		"--tag", tags[1],
		".",
	); err != nil {
		return errors.Wrap(err, "docker build failed")
	}

	for _, tag := range tags {
		if err := exec.Run(ctx, "docker", "push", tag); err != nil {
			return errors.Wrapf(err, "failed to push %s", tag)
		}
		writeOutputf(opts.Output, "Pushed %s\n", tag)
	}

	return nil
}

func runBackendHash(ctx context.Context, _ *cli.Command, cfg config.Config) error {
	hash, err := dirhash.New(logger(ctx)).Hash(backendBuildContext(cfg))
	if err != nil {
		return err
	}

	writeOutputf(os.Stdout, "%s\n", hash)
	return nil
}

// backendBuildContext is the project root: the backend is part of the root
// module, and .dockerignore narrows the context to it.
func backendBuildContext(cfg config.Config) dirhash.BuildContext {
	return dirhash.BuildContext{
		Dir:        cfg.ProjectDir,
		Dockerfile: cfg.Dockerfile(),
	}
}
