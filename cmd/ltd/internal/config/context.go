package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/urfave/cli/v3"
)

type contextKey struct{}

type Config struct {
	Inner      InnerConfig
	ProjectDir string
}

// Env resolves the target environment: an explicit value wins over the
// project default, and anything unknown falls back like DEPLOY_ENV does.
func (c Config) Env(explicit string) ltdenv.EnvCode {
	if explicit != "" {
		return ltdenv.Resolve(explicit)
	}
	return ltdenv.Resolve(c.Inner.DefaultEnv)
}

// BackendDir returns the path to the backend service sources.
func (c Config) BackendDir() string {
	return filepath.Join(c.ProjectDir, "backend")
}

// Dockerfile is relative to the project dir, which is the image build context.
func (c Config) Dockerfile() string {
	return filepath.Join("backend", "Dockerfile")
}

// CDKJSONPath returns the path to cdk.json.
func (c Config) CDKJSONPath() string {
	return filepath.Join(c.ProjectDir, "cdk.json")
}

// CDKOutDir returns the cloud assembly directory of the given environment.
func (c Config) CDKOutDir(env ltdenv.EnvCode) string {
	return filepath.Join(c.ProjectDir, "cdk.out", string(env))
}

func WithContext(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(contextKey{}).(Config)
	return cfg, ok
}

var defaultFinder = NewFinder(NewLoader())

// Ensure returns config from context if present, otherwise loads it from disk.
func Ensure(ctx context.Context) (context.Context, Config, error) {
	if cfg, ok := FromContext(ctx); ok {
		return ctx, cfg, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ctx, Config{}, err
	}

	inner, projectDir, err := defaultFinder.Find(cwd)
	if err != nil {
		return ctx, Config{}, err
	}

	cfg := Config{Inner: inner, ProjectDir: projectDir}
	return WithContext(ctx, cfg), cfg, nil
}

// ActionFunc is a command action that receives the config.
type ActionFunc func(ctx context.Context, cmd *cli.Command, cfg Config) error

// RunWithConfig wraps an ActionFunc to lazily load config when the action runs,
// so help output works outside a project.
func RunWithConfig(fn ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ctx, cfg, err := Ensure(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, cfg)
	}
}
