package main

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bitfield/script"
	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/cmdexec"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdstack"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// goPackages are the package patterns of every Go package in the module:
// the infrastructure libraries, both binaries under cmd and the backend.
var goPackages = []string{"./ltd...", "./cmd/...", "./backend/..."}

// migrationsDir is relative to the project root.
var migrationsDir = filepath.Join("backend", "internal", "db", "migrations")

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Run various checks",
		Commands: []*cli.Command{
			{
				Name:   "tests",
				Usage:  "Run the Go tests of the infrastructure, CLI and backend",
				Action: config.RunWithConfig(withGoExecutor(doCheckTests)),
			},
			{
				Name:   "lint",
				Usage:  "Lint Go code with golangci-lint and check the backend migrations",
				Action: config.RunWithConfig(withGoExecutor(doCheckLint)),
			},
			{
				Name:   "compiles",
				Usage:  "Check that every package and its tests compile",
				Action: config.RunWithConfig(withGoExecutor(doCheckCompiles)),
			},
			{
				Name:   "plans",
				Usage:  "Check that the stacks of every environment compile into a valid plan",
				Action: checkPlans,
			},
		},
	}
}

type goTaskFunc func(ctx context.Context, exec cmdexec.Executor) error

// withGoExecutor runs fn from the project root with output on the terminal.
func withGoExecutor(fn goTaskFunc) config.ActionFunc {
	return func(ctx context.Context, _ *cli.Command, cfg config.Config) error {
		return fn(ctx, cmdexec.New(cfg, logger(ctx)).WithOutput(os.Stdout, os.Stderr))
	}
}

func doCheckTests(ctx context.Context, exec cmdexec.Executor) error {
	return exec.Run(ctx, "go", append([]string{"test", "-count=1"}, goPackages...)...)
}

func doCheckCompiles(ctx context.Context, exec cmdexec.Executor) error {
	if err := exec.Run(ctx, "go", append([]string{"build"}, goPackages...)...); err != nil {
		return err
	}
	// compiles test files without running any test
	return exec.Run(ctx, "go", append([]string{"test", "-count=1", "-run", "^$"}, goPackages...)...)
}

func doCheckLint(ctx context.Context, exec cmdexec.Executor) error {
	if err := exec.Run(ctx, "golangci-lint", append([]string{"run"}, goPackages...)...); err != nil {
		return err
	}
	return lintMigrations(filepath.Join(exec.Dir(), migrationsDir))
}

var migrationName = regexp.MustCompile(`^(\d+)_[a-z0-9_]+\.sql$`)

// lintMigrations checks what goose needs from the files in dir: a
// numbered name, a unique version and both an Up and a Down section.
func lintMigrations(dir string) error {
	files, err := script.FindFiles(dir).MatchRegexp(regexp.MustCompile(`\.sql$`)).Slice()
	if err != nil {
		return errors.Wrapf(err, "list migrations in %s", dir)
	}
	if len(files) == 0 {
		return errors.Newf("no migrations in %s", dir)
	}
	sort.Strings(files)

	var errs []error
	seen := map[string]string{}
	for _, file := range files {
		name := filepath.Base(file)
		m := migrationName.FindStringSubmatch(name)
		if m == nil {
			errs = append(errs, errors.Newf("%s: name must be <version>_<description>.sql", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			errs = append(errs, errors.Newf("%s: version %s already used by %s", name, m[1], prev))
		}
		seen[m[1]] = name

		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			n, err := script.File(file).Match(marker).CountLines()
			if err != nil {
				return errors.Wrapf(err, "read %s", name)
			}
			if n == 0 {
				errs = append(errs, errors.Newf("%s: missing %q", name, marker))
			}
		}
	}
	return errors.Join(errs...)
}

func checkPlans(ctx context.Context, _ *cli.Command) error {
	return doCheckPlans(logger(ctx), os.Getenv("CDK_DEFAULT_REGION"))
}

func doCheckPlans(logs *zap.Logger, region string) error {
	var errs []error
	for _, code := range ltdenv.EnvCodes() {
		cfg, err := ltdenv.NewConfig(ltdenv.Variables{DeployEnv: string(code), Region: region})
		if err == nil {
			_, err = ltdstack.Build(cfg)
		}
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "%s", code))
			continue
		}
		logs.Info("plan ok", zap.Stringer("env", code))
	}
	return errors.Join(errs...)
}
