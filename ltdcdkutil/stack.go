package ltdcdkutil

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/penysho/load-test-demo/ltdenv"
)

// NewStack creates a CDK stack named name in the account and region of cfg.
// The construct ID and the CloudFormation stack name are the same.
func NewStack(scope constructs.Construct, cfg ltdenv.Config, name, description string) awscdk.Stack {
	var account *string
	if cfg.Account != "" {
		account = jsii.String(cfg.Account)
	}

	return awscdk.NewStack(scope, jsii.String(name), &awscdk.StackProps{
		StackName: jsii.String(name),
		Env: &awscdk.Environment{
			Account: account,
			Region:  jsii.String(cfg.Region),
		},
		Description: jsii.String(description),
		Tags: &map[string]*string{
			"Project":     jsii.String(cfg.ProjectName),
			"Environment": jsii.String(cfg.Env.String()),
		},
	})
}
