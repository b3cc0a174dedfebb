package initwizard

import (
	"context"

	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
)

type Wizard struct {
	builder FormBuilder
	runner  FormRunner
}

func New(builder FormBuilder, runner FormRunner) *Wizard {
	return &Wizard{
		builder: builder,
		runner:  runner,
	}
}

// Run asks for the project settings, starting from defaults.
func (w *Wizard) Run(ctx context.Context, defaults config.InnerConfig) (config.InnerConfig, error) {
	var result Result
	form := w.builder.Build(defaults, &result)

	if err := w.runner.Run(ctx, form); err != nil {
		return config.InnerConfig{}, err
	}

	return result.Config(), nil
}
