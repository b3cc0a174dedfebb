package ltdenv

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// ProjectName prefixes every stack and most physical resource names.
	ProjectName = "load-test-demo"
	// GitHubOrg owns the source repository that CI tokens are issued for.
	GitHubOrg = "penysho"
	// DefaultRegion is used when CDK_DEFAULT_REGION is not set.
	DefaultRegion = "ap-northeast-1"
)

// Availability zones cannot be discovered from an imported VPC id at synth
// time, so they are fixed per region.
var availabilityZones = map[string][]string{
	"ap-northeast-1": {"ap-northeast-1a", "ap-northeast-1c"},
}

// Stack kinds, used in stack names.
const (
	KindNetwork      = "vpc"
	KindLoadBalancer = "elb"
	KindDatabase     = "rds"
	KindApplication  = "app"
	KindCI           = "ci"
)

// Config is the validated configuration every stack builder receives.
type Config struct {
	ProjectName           string   `validate:"required,hostname_rfc1123"`
	GitHubOrg             string   `validate:"required"`
	Env                   EnvCode  `validate:"required,oneof=dev tst prd"`
	Settings              Settings `validate:"required"`
	Account               string   `validate:"omitempty,numeric,len=12"`
	Region                string   `validate:"required"`
	AvailabilityZones     []string `validate:"len=2,dive,required"`
	GitHubOIDCProviderArn string   `validate:"omitempty,startswith=arn:aws:iam::"`
}

// NewConfig resolves the environment from vars and returns a validated Config.
func NewConfig(vars Variables) (Config, error) {
	code := Resolve(vars.DeployEnv)

	region := vars.Region
	if region == "" {
		region = DefaultRegion
	}

	cfg := Config{
		ProjectName:           ProjectName,
		GitHubOrg:             GitHubOrg,
		Env:                   code,
		Settings:              SettingsFor(code),
		Account:               vars.Account,
		Region:                region,
		AvailabilityZones:     availabilityZones[region],
		GitHubOIDCProviderArn: vars.GitHubOIDCProviderArn,
	}
	if vars.SecretRotation != nil {
		cfg.Settings.SecretRotation.Enabled = *vars.SecretRotation
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags of the configuration.
func (c Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return errors.Newf("invalid configuration for environment %q:\n  - %s",
			c.Env, strings.Join(validationMessages(err), "\n  - "))
	}
	return nil
}

// StackName returns the physical name of the stack of the given kind.
func (c Config) StackName(kind string) string {
	return fmt.Sprintf("%s-%s-%s", c.ProjectName, kind, c.Env)
}

// ResourceName returns "<project>-<env>" joined with the given parts.
func (c Config) ResourceName(parts ...string) string {
	return strings.Join(append([]string{c.ProjectName, string(c.Env)}, parts...), "-")
}

// SourceSubject is the OIDC subject claim of tokens issued for the
// environment's branch.
func (c Config) SourceSubject() string {
	return fmt.Sprintf("repo:%s/%s:ref:refs/heads/%s", c.GitHubOrg, c.ProjectName, c.Settings.Branch)
}
