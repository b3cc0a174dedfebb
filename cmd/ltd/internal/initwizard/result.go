package initwizard

import (
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
)

type Result struct {
	DefaultEnv string
	AWSProfile string
	Platform   string
}

func DefaultResult(defaults config.InnerConfig) Result {
	return Result{
		DefaultEnv: defaults.DefaultEnv,
		AWSProfile: defaults.AWSProfile,
		Platform:   defaults.Platform,
	}
}

// Config turns the answers into the project file content.
func (r Result) Config() config.InnerConfig {
	cfg := config.Default()
	cfg.DefaultEnv = r.DefaultEnv
	cfg.AWSProfile = r.AWSProfile
	cfg.Platform = r.Platform
	return cfg
}
