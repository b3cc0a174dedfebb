package initwizard

import (
	"github.com/charmbracelet/huh"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/samber/lo"
)

type FormBuilder interface {
	Build(defaults config.InnerConfig, result *Result) *huh.Form
}

type formBuilder struct{}

func NewFormBuilder() FormBuilder {
	return &formBuilder{}
}

func (b *formBuilder) Build(defaults config.InnerConfig, result *Result) *huh.Form {
	*result = DefaultResult(defaults)
	return huh.NewForm(
		huh.NewGroup(
			b.defaultEnvSelect(&result.DefaultEnv),
			b.awsProfileInput(&result.AWSProfile),
			b.platformSelect(&result.Platform),
		),
	)
}

func (b *formBuilder) defaultEnvSelect(value *string) *huh.Select[string] {
	envs := lo.Map(ltdenv.EnvCodes(), func(c ltdenv.EnvCode, _ int) string { return string(c) })
	return huh.NewSelect[string]().
		Title("Default environment").
		Description("Used when neither --env nor DEPLOY_ENV is given").
		Options(huh.NewOptions(envs...)...).
		Value(value)
}

func (b *formBuilder) awsProfileInput(value *string) *huh.Input {
	return huh.NewInput().
		Title("AWS profile").
		Description("Profile for CDK and ECR commands (empty uses the default credential chain)").
		Value(value).
		Validate(config.ValidateProfile)
}

func (b *formBuilder) platformSelect(value *string) *huh.Select[string] {
	return huh.NewSelect[string]().
		Title("Image platform").
		Description("Target platform of the backend image").
		Options(huh.NewOptions(config.Platforms...)...).
		Value(value)
}
