// Command ltdcdk is the CDK app of the load-test-demo infrastructure. It is
// invoked by the CDK CLI through cdk.json.
package main

import (
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/joho/godotenv"
	"github.com/penysho/load-test-demo/ltdcdkutil"
	"github.com/penysho/load-test-demo/ltdenv"
	"go.uber.org/zap"
)

func main() {
	defer jsii.Close()

	logs := newLogger()
	defer logs.Sync() //nolint:errcheck

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logs.Fatal("failed to load .env", zap.Error(err))
	}

	vars, err := ltdenv.ParseVariables()
	if err != nil {
		logs.Fatal("failed to read environment", zap.Error(err))
	}
	if vars.DeployEnv != "" && !ltdenv.EnvCode(vars.DeployEnv).Valid() {
		logs.Warn("unknown DEPLOY_ENV, falling back to default",
			zap.String("deploy_env", vars.DeployEnv),
			zap.Stringer("default", ltdenv.DefaultEnvCode))
	}

	cfg, err := ltdenv.NewConfig(vars)
	if err != nil {
		logs.Fatal("invalid configuration", zap.Error(err))
	}

	app := awscdk.NewApp(nil)
	d, stacks, err := ltdcdkutil.SetupApp(app, cfg)
	if err != nil {
		logs.Fatal("failed to build stacks", zap.Error(err))
	}

	logs.Info("synthesizing",
		zap.Stringer("env", cfg.Env),
		zap.String("region", cfg.Region),
		zap.Int("stacks", len(stacks)),
		zap.Strings("imports", d.Graph.Imports()),
		zap.Bool("secret_rotation", cfg.Settings.SecretRotation.Enabled))

	app.Synth(nil)
}

// newLogger logs to stderr; stdout is reserved for the CDK CLI.
func newLogger() *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if os.Getenv("LTD_DEBUG") != "" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}

	logs, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logs
}
