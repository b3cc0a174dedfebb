// Package ltdrepos provides the ECR repository the application image is
// pushed to.
//
// The repository keeps a bounded number of images through a lifecycle policy
// and is retained when its stack is deleted, so images survive a stack
// re-create.
package ltdrepos

import (
	"encoding/json"
	"fmt"

	"github.com/penysho/load-test-demo/ltdplan"
)

// RepositoryURIOutputKey is the output key of the repository URI. The
// backend build-and-push command reads it to find where to push:
//
//	aws cloudformation describe-stacks --stack-name load-test-demo-app-tst \
//	  --query 'Stacks[0].Outputs[?OutputKey==`RepositoryUri`].OutputValue' --output text
const RepositoryURIOutputKey = "RepositoryUri"

const defaultLifecycleMaxImages = 3

// Repository exposes the attributes of one ECR repository.
type Repository interface {
	Arn() ltdplan.Value
	URI() ltdplan.Value
	Name() ltdplan.Value
}

// Repositories provides access to ECR repositories.
type Repositories interface {
	// MainRepository returns the repository the service image is pulled from.
	MainRepository() Repository
}

// Props configures the Repositories.
type Props struct {
	// RepositoryName is the physical repository name.
	RepositoryName string

	// LifecycleMaxImages is the maximum number of images to retain.
	// Defaults to 3 if zero.
	LifecycleMaxImages int
}

type repositories struct {
	main *repository
}

type repository struct {
	res *ltdplan.Resource
}

// New declares the repositories in stack and exports the main repository URI.
func New(stack *ltdplan.Stack, props Props) Repositories {
	maxImages := props.LifecycleMaxImages
	if maxImages == 0 {
		maxImages = defaultLifecycleMaxImages
	}

	res := stack.Add(&ltdplan.Resource{
		ID:             "Repository",
		Type:           "AWS::ECR::Repository",
		DeletionPolicy: ltdplan.DeletionPolicyRetain,
		Properties: ltdplan.Props{
			"RepositoryName":     props.RepositoryName,
			"ImageTagMutability": "MUTABLE",
			"LifecyclePolicy": ltdplan.Props{
				"LifecyclePolicyText": lifecyclePolicyText(maxImages),
			},
		},
	})

	main := &repository{res: res}
	stack.Export(RepositoryURIOutputKey, "ECR repository URI of the service image", main.URI())
	stack.Export("RepositoryArn", "ECR repository ARN", main.Arn())

	return &repositories{main: main}
}

type lifecyclePolicy struct {
	Rules []lifecycleRule `json:"rules"`
}

type lifecycleRule struct {
	RulePriority int               `json:"rulePriority"`
	Description  string            `json:"description"`
	Selection    lifecycleSelector `json:"selection"`
	Action       lifecycleAction   `json:"action"`
}

type lifecycleSelector struct {
	TagStatus   string `json:"tagStatus"`
	CountType   string `json:"countType"`
	CountNumber int    `json:"countNumber"`
}

type lifecycleAction struct {
	Type string `json:"type"`
}

func lifecyclePolicyText(maxImages int) string {
	buf, err := json.Marshal(lifecyclePolicy{Rules: []lifecycleRule{{
		RulePriority: 1,
		Description:  fmt.Sprintf("Keep last %d images", maxImages),
		Selection: lifecycleSelector{
			TagStatus:   "any",
			CountType:   "imageCountMoreThan",
			CountNumber: maxImages,
		},
		Action: lifecycleAction{Type: "expire"},
	}}})
	if err != nil {
		panic(err)
	}
	return string(buf)
}

func (r *repositories) MainRepository() Repository {
	return r.main
}

func (r *repository) Arn() ltdplan.Value  { return r.res.GetAtt("Arn") }
func (r *repository) URI() ltdplan.Value  { return r.res.GetAtt("RepositoryUri") }
func (r *repository) Name() ltdplan.Value { return r.res.Ref() }
