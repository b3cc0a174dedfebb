// Package ltdiam builds IAM policy documents as plan properties.
package ltdiam

import (
	"github.com/penysho/load-test-demo/ltdplan"
	"github.com/samber/lo"
)

// Statement is a single IAM policy statement.
type Statement struct {
	Sid       string
	Effect    string
	Principal ltdplan.Props
	Actions   []string
	Resources []any
	Condition ltdplan.Props
}

// Allow returns an Allow statement for actions on resources. Resources are
// strings or plan values.
func Allow(actions []string, resources ...any) Statement {
	return Statement{Effect: "Allow", Actions: actions, Resources: resources}
}

// When returns a copy of s with the given condition block.
func (s Statement) When(condition ltdplan.Props) Statement {
	s.Condition = condition
	return s
}

// Props renders the statement.
func (s Statement) Props() ltdplan.Props {
	p := ltdplan.Props{"Effect": s.Effect}
	if s.Sid != "" {
		p["Sid"] = s.Sid
	}
	if s.Principal != nil {
		p["Principal"] = s.Principal
	}
	if len(s.Actions) == 1 {
		p["Action"] = s.Actions[0]
	} else {
		p["Action"] = lo.ToAnySlice(s.Actions)
	}
	switch len(s.Resources) {
	case 0:
	case 1:
		p["Resource"] = s.Resources[0]
	default:
		p["Resource"] = s.Resources
	}
	if s.Condition != nil {
		p["Condition"] = s.Condition
	}
	return p
}

// Document renders a policy document.
func Document(statements ...Statement) ltdplan.Props {
	return ltdplan.Props{
		"Version": "2012-10-17",
		"Statement": lo.Map(statements, func(s Statement, _ int) any {
			return s.Props()
		}),
	}
}

// InlinePolicy renders an entry of an AWS::IAM::Role "Policies" list.
func InlinePolicy(name string, statements ...Statement) ltdplan.Props {
	return ltdplan.Props{
		"PolicyName":     name,
		"PolicyDocument": Document(statements...),
	}
}

// ServiceTrust is the assume-role policy for an AWS service principal.
func ServiceTrust(service string) ltdplan.Props {
	return Document(Statement{
		Effect:    "Allow",
		Principal: ltdplan.Props{"Service": service},
		Actions:   []string{"sts:AssumeRole"},
	})
}

// ManagedPolicyArn returns the ARN of an AWS managed policy.
func ManagedPolicyArn(name string) ltdplan.Join {
	return ltdplan.Joinf("arn:", ltdplan.Partition, ":iam::aws:policy/", name)
}
