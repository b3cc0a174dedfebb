package main

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudformation/cloudformationiface"
	"github.com/aws/aws-sdk-go/service/ecr"
	"github.com/aws/aws-sdk-go/service/ecr/ecriface"
	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
)

// newAWSSession uses the project's profile, if any, and the shared config
// files like the AWS and CDK CLIs do.
func newAWSSession(cfg config.Config, region string) (*session.Session, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Profile:           cfg.Inner.AWSProfile,
		SharedConfigState: session.SharedConfigEnable,
		Config:            aws.Config{Region: aws.String(region)},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS session")
	}
	return sess, nil
}

// listExports returns every CloudFormation export of the account and region.
func listExports(ctx context.Context, api cloudformationiface.CloudFormationAPI) (map[string]string, error) {
	exports := map[string]string{}
	err := api.ListExportsPagesWithContext(ctx, &cloudformation.ListExportsInput{},
		func(page *cloudformation.ListExportsOutput, _ bool) bool {
			for _, e := range page.Exports {
				exports[aws.StringValue(e.Name)] = aws.StringValue(e.Value)
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list CloudFormation exports")
	}
	return exports, nil
}

func stackOutput(ctx context.Context, api cloudformationiface.CloudFormationAPI, stackName, key string) (string, error) {
	out, err := api.DescribeStacksWithContext(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to describe stack %s", stackName)
	}
	if len(out.Stacks) == 0 {
		return "", errors.Newf("stack %s not found", stackName)
	}

	for _, o := range out.Stacks[0].Outputs {
		if aws.StringValue(o.OutputKey) == key {
			return aws.StringValue(o.OutputValue), nil
		}
	}
	return "", errors.Newf("output %q not found in stack %s", key, stackName)
}

type registryLogin struct {
	Registry string
	Username string
	Password string
}

// ecrLogin exchanges the caller's credentials for a docker registry login.
func ecrLogin(ctx context.Context, api ecriface.ECRAPI) (registryLogin, error) {
	out, err := api.GetAuthorizationTokenWithContext(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return registryLogin{}, errors.Wrap(err, "failed to get ECR authorization token")
	}
	if len(out.AuthorizationData) == 0 {
		return registryLogin{}, errors.New("ECR returned no authorization data")
	}

	data := out.AuthorizationData[0]
	decoded, err := base64.StdEncoding.DecodeString(aws.StringValue(data.AuthorizationToken))
	if err != nil {
		return registryLogin{}, errors.Wrap(err, "failed to decode ECR authorization token")
	}

	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return registryLogin{}, errors.New("malformed ECR authorization token")
	}

	return registryLogin{
		Registry: strings.TrimPrefix(aws.StringValue(data.ProxyEndpoint), "https://"),
		Username: user,
		Password: password,
	}, nil
}
