// Package cmdexec runs the external tools the CLI drives: the CDK toolkit,
// docker and go.
package cmdexec

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"go.uber.org/zap"
)

// Executor provides a common interface for executing external commands.
type Executor interface {
	// WithOutput returns a new Executor that writes to the given stdout/stderr.
	WithOutput(stdout, stderr io.Writer) Executor

	// InSubdir returns a new Executor that runs commands in a subdirectory.
	InSubdir(subdir string) Executor

	// WithEnv returns a new Executor with an additional environment variable.
	WithEnv(key, value string) Executor

	// ForDeployEnv returns a new Executor targeting the given environment.
	ForDeployEnv(env ltdenv.EnvCode) Executor

	Dir() string
	Env() []string

	// Run executes a command and streams output to configured writers.
	Run(ctx context.Context, name string, args ...string) error

	// RunWithStdin executes a command with stdin from a reader.
	RunWithStdin(ctx context.Context, stdin io.Reader, name string, args ...string) error

	// Output executes a command and returns its trimmed stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)

	// CDK runs the CDK toolkit through npx.
	CDK(ctx context.Context, args ...string) error

	// CDKWithStdin runs the CDK toolkit with stdin attached for its prompts.
	CDKWithStdin(ctx context.Context, stdin io.Reader, args ...string) error
}

type executor struct {
	dir    string
	stdout io.Writer
	stderr io.Writer
	env    []string
	logs   *zap.Logger
}

// New creates an Executor rooted at the project directory. The AWS profile
// from the project file is exported when set.
func New(cfg config.Config, logs *zap.Logger) Executor {
	var e Executor = &executor{dir: cfg.ProjectDir, logs: logs}
	if cfg.Inner.AWSProfile != "" {
		e = e.WithEnv("AWS_PROFILE", cfg.Inner.AWSProfile)
	}
	return e
}

// NewWithDir creates an Executor with an explicit working directory, for
// commands that run before a project file exists.
func NewWithDir(dir string, logs *zap.Logger) Executor {
	return &executor{dir: dir, logs: logs}
}

func (e *executor) clone() *executor {
	c := *e
	c.env = append([]string(nil), e.env...)
	return &c
}

func (e *executor) WithOutput(stdout, stderr io.Writer) Executor {
	c := e.clone()
	c.stdout, c.stderr = stdout, stderr
	return c
}

func (e *executor) InSubdir(subdir string) Executor {
	c := e.clone()
	c.dir = filepath.Join(e.dir, subdir)
	return c
}

func (e *executor) WithEnv(key, value string) Executor {
	c := e.clone()
	c.env = append(c.env, key+"="+value)
	return c
}

func (e *executor) ForDeployEnv(env ltdenv.EnvCode) Executor {
	return e.WithEnv("DEPLOY_ENV", string(env))
}

func (e *executor) Dir() string   { return e.dir }
func (e *executor) Env() []string { return e.env }

func (e *executor) Run(ctx context.Context, name string, args ...string) error {
	return e.RunWithStdin(ctx, nil, name, args...)
}

func (e *executor) RunWithStdin(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := e.command(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "%s failed", name)
	}

	return nil
}

func (e *executor) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := e.command(ctx, name, args...)
	cmd.Stderr = e.stderr

	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, "%s failed", name)
	}

	return strings.TrimSpace(string(output)), nil
}

func (e *executor) CDK(ctx context.Context, args ...string) error {
	return e.CDKWithStdin(ctx, nil, args...)
}

func (e *executor) CDKWithStdin(ctx context.Context, stdin io.Reader, args ...string) error {
	return e.RunWithStdin(ctx, stdin, "npx", append([]string{"--yes", "cdk"}, args...)...)
}

func (e *executor) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	e.logs.Debug("exec",
		zap.String("dir", e.dir),
		zap.String("cmd", name),
		zap.Strings("args", args),
		zap.Strings("env", e.env))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.dir
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}
	return cmd
}
