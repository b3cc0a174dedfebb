package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/cmdexec"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func cdkCmd() *cli.Command {
	return &cli.Command{
		Name:  "cdk",
		Usage: "Run the CDK toolkit against every stack of the target environment",
		Commands: []*cli.Command{
			{
				Name:   "synth",
				Usage:  "Synthesize the cloud assembly",
				Action: config.RunWithConfig(runCDKVerb("synth")),
			},
			{
				Name:   "diff",
				Usage:  "Show CDK stack differences",
				Action: config.RunWithConfig(runCDKVerb("diff")),
			},
			deployCmd(),
			destroyCmd(),
		},
	}
}

func deployCmd() *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Deploy CDK stacks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "require-approval",
				Usage: "What security-sensitive changes need manual approval (never, any-change, broadening)",
				Value: "broadening",
			},
		},
		Action: config.RunWithConfig(runCDKVerb("deploy")),
	}
}

func destroyCmd() *cli.Command {
	return &cli.Command{
		Name:  "destroy",
		Usage: "Destroy CDK stacks",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Skip confirmation prompts",
			},
		},
		Action: config.RunWithConfig(runCDKVerb("destroy")),
	}
}

type cdkCommandOptions struct {
	Verb            string
	Env             ltdenv.EnvCode
	RequireApproval string
	Force           bool
	Confirm         confirmFunc
	Output          io.Writer
}

// confirmFunc asks the operator a yes/no question.
type confirmFunc func(title, description string) (bool, error)

func confirmInteractive(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes, destroy").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

func runCDKVerb(verb string) config.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command, cfg config.Config) error {
		opts := cdkCommandOptions{
			Verb:    verb,
			Env:     cfg.Env(cmd.String("env")),
			Force:   cmd.Bool("force"),
			Confirm: confirmInteractive,
			Output:  os.Stdout,
		}
		if verb == "deploy" {
			opts.RequireApproval = cmd.String("require-approval")
		}

		exec := cmdexec.New(cfg, logger(ctx))
		return doCDK(ctx, logger(ctx), exec, cfg, opts)
	}
}

func doCDK(ctx context.Context, logs *zap.Logger, exec cmdexec.Executor, cfg config.Config, opts cdkCommandOptions) error {
	if opts.Verb == "destroy" && opts.Env == ltdenv.Prd && !opts.Force {
		ok, err := opts.Confirm(
			"Destroy every "+ltdenv.ProjectName+" stack in prd?",
			"The database cluster is snapshotted, everything else is deleted.",
		)
		if err != nil {
			return errors.Wrap(err, "confirmation failed")
		}
		if !ok {
			return errors.New("destroy of prd aborted")
		}
		opts.Force = true
	}

	args := buildCDKArgs(cfg, opts)
	logs.Info("running cdk", zap.String("verb", opts.Verb), zap.Stringer("env", opts.Env))

	exec = exec.ForDeployEnv(opts.Env).WithOutput(opts.Output, opts.Output)
	if opts.Verb == "destroy" && !opts.Force {
		return exec.CDKWithStdin(ctx, os.Stdin, args...)
	}
	return exec.CDK(ctx, args...)
}

func buildCDKArgs(cfg config.Config, opts cdkCommandOptions) []string {
	args := []string{opts.Verb, "--all", "--output", cfg.CDKOutDir(opts.Env)}
	if cfg.Inner.AWSProfile != "" {
		args = append(args, "--profile", cfg.Inner.AWSProfile)
	}

	switch opts.Verb {
	case "deploy":
		if opts.RequireApproval != "" {
			args = append(args, "--require-approval", opts.RequireApproval)
		}
	case "destroy":
		if opts.Force {
			args = append(args, "--force")
		}
	}
	return args
}
