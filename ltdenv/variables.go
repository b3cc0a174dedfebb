package ltdenv

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
)

// Variables are the process environment inputs of the infrastructure.
type Variables struct {
	DeployEnv string `env:"DEPLOY_ENV"`
	Account   string `env:"CDK_DEFAULT_ACCOUNT"`
	Region    string `env:"CDK_DEFAULT_REGION" envDefault:"ap-northeast-1"`

	// SecretRotation overrides the environment's rotation setting when set.
	SecretRotation        *bool  `env:"RDS_SECRET_ROTATION"`
	GitHubOIDCProviderArn string `env:"GITHUB_OIDC_PROVIDER_ARN"`
}

// ParseVariables reads Variables from the process environment.
func ParseVariables() (Variables, error) {
	vars, err := env.ParseAs[Variables]()
	if err != nil {
		return Variables{}, errors.Wrap(err, "parse environment variables")
	}
	return vars, nil
}

// ParseVariablesFrom reads Variables from the given key/value map instead of
// the process environment.
func ParseVariablesFrom(environ map[string]string) (Variables, error) {
	vars, err := env.ParseAsWithOptions[Variables](env.Options{Environment: environ})
	if err != nil {
		return Variables{}, errors.Wrap(err, "parse environment variables")
	}
	return vars, nil
}
