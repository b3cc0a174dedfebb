package initwizard

import (
	"context"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"
)

// ErrAborted is returned when the user quits the form.
var ErrAborted = errors.New("init aborted")

// FormRunner drives a form until it completes or the context ends.
type FormRunner interface {
	Run(ctx context.Context, form *huh.Form) error
}

// TerminalRunner renders the form on the terminal. With accessible set it
// falls back to plain line prompts on the given reader and writer, which
// also works without a TTY.
type TerminalRunner struct {
	accessible bool
	output     io.Writer
	input      io.Reader
}

func NewInteractiveRunner() *TerminalRunner {
	return &TerminalRunner{}
}

func NewAccessibleRunner(output io.Writer, input io.Reader) *TerminalRunner {
	return &TerminalRunner{accessible: true, output: output, input: input}
}

func (r *TerminalRunner) Run(ctx context.Context, form *huh.Form) error {
	if r.accessible {
		form = form.WithAccessible(true).WithOutput(r.output).WithInput(r.input)
	}

	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}
