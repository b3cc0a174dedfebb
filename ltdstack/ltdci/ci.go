// Package ltdci declares the GitHub Actions OIDC trust and the branch-scoped
// role CI assumes to push images and start deployments.
package ltdci

import (
	"fmt"
	"strings"

	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdplan"
	"github.com/penysho/load-test-demo/ltdstack/ltdapp"
	"github.com/penysho/load-test-demo/ltdstack/ltdiam"
)

const (
	// TokenURL is the issuer of GitHub Actions OIDC tokens.
	TokenURL = "https://token.actions.githubusercontent.com"
	// Audience is the audience CI requests tokens for.
	Audience = "sts.amazonaws.com"

	thumbprint = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

// Permission scopes granted to the CI role.
var (
	ImagePushActions = []string{
		"ecr:BatchCheckLayerAvailability",
		"ecr:BatchGetImage",
		"ecr:CompleteLayerUpload",
		"ecr:GetDownloadUrlForLayer",
		"ecr:InitiateLayerUpload",
		"ecr:PutImage",
		"ecr:UploadLayerPart",
	}
	ServiceReadActions = []string{
		"ecs:DescribeServices",
		"ecs:DescribeTaskDefinition",
		"ecs:DescribeTasks",
		"ecs:ListTasks",
		"ecs:RegisterTaskDefinition",
	}
	DeployActions = []string{
		"codedeploy:CreateDeployment",
		"codedeploy:GetApplication",
		"codedeploy:GetApplicationRevision",
		"codedeploy:GetDeployment",
		"codedeploy:GetDeploymentConfig",
		"codedeploy:GetDeploymentGroup",
		"codedeploy:RegisterApplicationRevision",
	}
)

// CI is the handle of the CI stack.
type CI interface {
	StackName() string
	RoleArn() ltdplan.Value
}

// Props configures the CI stack.
type Props struct {
	Application ltdapp.Application
}

type ci struct {
	stack *ltdplan.Stack
	role  *ltdplan.Resource
}

// New declares the CI stack.
func New(g *ltdplan.Graph, cfg ltdenv.Config, props Props) CI {
	stack := g.NewStack(cfg.StackName(ltdenv.KindCI),
		fmt.Sprintf("%s GitHub Actions deploy role (env: %s)", cfg.ProjectName, cfg.Env))
	props.Application.Consume(stack)

	var provider any = cfg.GitHubOIDCProviderArn
	if cfg.GitHubOIDCProviderArn == "" {
		provider = stack.Add(&ltdplan.Resource{
			ID:   "GitHubActionsOidcProvider",
			Type: "AWS::IAM::OIDCProvider",
			Properties: ltdplan.Props{
				"Url":            TokenURL,
				"ClientIdList":   []any{Audience},
				"ThumbprintList": []any{thumbprint},
			},
		}).Ref()
	} else {
		stack.Note(ltdplan.NoteInfo, "ltd:ci:existing-provider",
			"using existing OIDC provider "+cfg.GitHubOIDCProviderArn)
	}

	tokenHost := strings.TrimPrefix(TokenURL, "https://")
	trust := ltdiam.Document(ltdiam.Statement{
		Effect:    "Allow",
		Principal: ltdplan.Props{"Federated": provider},
		Actions:   []string{"sts:AssumeRoleWithWebIdentity"},
		Condition: ltdplan.Props{
			"StringEquals": ltdplan.Props{tokenHost + ":aud": Audience},
			"StringLike":   ltdplan.Props{tokenHost + ":sub": cfg.SourceSubject()},
		},
	})

	role := stack.Add(&ltdplan.Resource{
		ID:   "GitHubActionsRole",
		Type: "AWS::IAM::Role",
		Properties: ltdplan.Props{
			"RoleName":                 cfg.ResourceName("github", "actions"),
			"Description":              "Assumed by GitHub Actions on " + cfg.Settings.Branch,
			"AssumeRolePolicyDocument": trust,
			"Policies": []any{ltdiam.InlinePolicy("deploy",
				ltdiam.Allow([]string{"ecr:GetAuthorizationToken"}, "*"),
				ltdiam.Allow(ImagePushActions, props.Application.Repository().Arn()),
				ltdiam.Allow(ServiceReadActions, "*"),
				ltdiam.Allow(DeployActions, "*"),
				ltdiam.Allow([]string{"iam:PassRole"}, "*").When(ltdplan.Props{
					"StringEqualsIfExists": ltdplan.Props{"iam:PassedToService": "ecs-tasks.amazonaws.com"},
				}),
			)},
		},
	})

	stack.Export("GitHubActionsRoleArn", "Role assumed by GitHub Actions", role.GetAtt("Arn"))

	return &ci{stack: stack, role: role}
}

func (c *ci) StackName() string      { return c.stack.Name }
func (c *ci) RoleArn() ltdplan.Value { return c.role.GetAtt("Arn") }
