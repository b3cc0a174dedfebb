package ltdcdkutil

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
	"github.com/iancoleman/strcase"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdplan"
)

// Stacks maps plan stack names to the rendered CDK stacks.
type Stacks map[string]awscdk.Stack

type renderer struct {
	stacks    Stacks
	resources map[string]map[string]awscdk.CfnResource
}

// Render creates one CDK stack per plan stack under scope. Stacks are
// rendered in dependency order so cross-stack values always resolve to
// constructs that already exist; the CDK turns those into exports.
func Render(scope constructs.Construct, cfg ltdenv.Config, g *ltdplan.Graph) (Stacks, error) {
	order, err := g.Order()
	if err != nil {
		return nil, errors.Wrap(err, "order stacks")
	}

	r := &renderer{
		stacks:    Stacks{},
		resources: map[string]map[string]awscdk.CfnResource{},
	}
	for _, ps := range order {
		if err := r.renderStack(scope, cfg, ps); err != nil {
			return nil, errors.Wrapf(err, "render stack %q", ps.Name)
		}
	}
	return r.stacks, nil
}

func (r *renderer) renderStack(scope constructs.Construct, cfg ltdenv.Config, ps *ltdplan.Stack) error {
	stack := NewStack(scope, cfg, ps.Name, ps.Description)
	r.stacks[ps.Name] = stack
	for _, dep := range ps.Dependencies() {
		stack.AddDependency(r.stacks[dep], jsii.String(ps.DependencyReason(dep)))
	}
	for _, t := range ps.Transforms {
		stack.AddTransform(jsii.String(t))
	}

	resources := map[string]awscdk.CfnResource{}
	r.resources[ps.Name] = resources
	for _, pr := range ps.Resources {
		props, err := r.convertMap(ps.Name, pr.Properties)
		if err != nil {
			return errors.Wrapf(err, "resource %s", pr.ID)
		}

		res := awscdk.NewCfnResource(stack, jsii.String(pr.ID), &awscdk.CfnResourceProps{
			Type:       jsii.String(pr.Type),
			Properties: &props,
		})
		res.OverrideLogicalId(jsii.String(pr.ID))
		if policy, ok := removalPolicy(pr.DeletionPolicy); ok {
			res.ApplyRemovalPolicy(policy, &awscdk.RemovalPolicyOptions{
				ApplyToUpdateReplacePolicy: jsii.Bool(true),
			})
		}
		resources[pr.ID] = res
	}

	for _, pr := range ps.Resources {
		for _, dep := range pr.DependsOn {
			target, ok := resources[dep]
			if !ok {
				return errors.Newf("resource %s depends on unknown resource %q", pr.ID, dep)
			}
			resources[pr.ID].AddDependency(target)
		}
	}

	for _, e := range ps.Exports {
		value, err := r.convertString(ps.Name, e.Value)
		if err != nil {
			return errors.Wrapf(err, "export %s", e.Key)
		}
		awscdk.NewCfnOutput(stack, jsii.String(strcase.ToCamel(e.Key)), &awscdk.CfnOutputProps{
			Value:       value,
			ExportName:  jsii.String(e.Name),
			Description: optional(e.Description),
		})
	}

	for _, note := range ps.Notes {
		logNote(stack, note)
	}
	return nil
}

func removalPolicy(p ltdplan.DeletionPolicy) (awscdk.RemovalPolicy, bool) {
	switch p {
	case ltdplan.DeletionPolicyDelete:
		return awscdk.RemovalPolicy_DESTROY, true
	case ltdplan.DeletionPolicyRetain:
		return awscdk.RemovalPolicy_RETAIN, true
	case ltdplan.DeletionPolicySnapshot:
		return awscdk.RemovalPolicy_SNAPSHOT, true
	default:
		return "", false
	}
}

func (r *renderer) convertMap(stack string, m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		cv, err := r.convert(stack, v)
		if err != nil {
			return nil, errors.Wrapf(err, "property %s", k)
		}
		out[k] = cv
	}
	return out, nil
}

// convert turns a plan property into something jsii can marshal: strings,
// float64 numbers, booleans, string tokens, slices and maps thereof.
func (r *renderer) convert(stack string, v any) (any, error) {
	switch tv := v.(type) {
	case ltdplan.Value:
		return r.convertString(stack, tv)
	case ltdplan.Props:
		return r.convertMap(stack, tv)
	case map[string]any:
		return r.convertMap(stack, tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			ce, err := r.convert(stack, e)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			out[i] = ce
		}
		return out, nil
	case []string:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = e
		}
		return out, nil
	case string, bool, float64:
		return tv, nil
	case int:
		return float64(tv), nil
	case nil:
		return nil, nil
	default:
		return nil, errors.Newf("unsupported property type %T", v)
	}
}

// convertString resolves a scalar value to a (possibly tokenized) string.
func (r *renderer) convertString(stack string, v any) (*string, error) {
	switch tv := v.(type) {
	case string:
		return jsii.String(tv), nil
	case ltdplan.Ref:
		if tv.Stack == stack {
			return awscdk.Fn_Ref(jsii.String(tv.Resource)), nil
		}
		res, err := r.resource(tv.Stack, tv.Resource)
		if err != nil {
			return nil, err
		}
		return res.Ref(), nil
	case ltdplan.GetAtt:
		if tv.Stack == stack {
			return awscdk.Token_AsString(awscdk.Fn_GetAtt(jsii.String(tv.Resource), jsii.String(tv.Attribute)), nil), nil
		}
		res, err := r.resource(tv.Stack, tv.Resource)
		if err != nil {
			return nil, err
		}
		return awscdk.Token_AsString(res.GetAtt(jsii.String(tv.Attribute), awscdk.ResolutionTypeHint_STRING), nil), nil
	case ltdplan.ImportValue:
		return awscdk.Fn_ImportValue(jsii.String(tv.Name)), nil
	case ltdplan.Pseudo:
		return pseudo(tv)
	case ltdplan.Join:
		parts := make([]*string, len(tv.Parts))
		for i, p := range tv.Parts {
			cp, err := r.convertString(stack, p)
			if err != nil {
				return nil, errors.Wrapf(err, "join part %d", i)
			}
			parts[i] = cp
		}
		return awscdk.Fn_Join(jsii.String(tv.Delimiter), &parts), nil
	default:
		return nil, errors.Newf("cannot use %T as a string", v)
	}
}

func (r *renderer) resource(stack, id string) (awscdk.CfnResource, error) {
	res, ok := r.resources[stack][id]
	if !ok {
		return nil, errors.Newf("reference to %s/%s which has not been rendered", stack, id)
	}
	return res, nil
}

func pseudo(p ltdplan.Pseudo) (*string, error) {
	switch p {
	case ltdplan.Region:
		return awscdk.Aws_REGION(), nil
	case ltdplan.AccountID:
		return awscdk.Aws_ACCOUNT_ID(), nil
	case ltdplan.Partition:
		return awscdk.Aws_PARTITION(), nil
	case ltdplan.URLSuffix:
		return awscdk.Aws_URL_SUFFIX(), nil
	default:
		return nil, errors.Newf("unknown pseudo parameter %q", string(p))
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return jsii.String(s)
}
