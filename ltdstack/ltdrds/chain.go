package ltdrds

import (
	"fmt"

	"github.com/penysho/load-test-demo/ltdplan"
)

// chain declares the ingress edges between the database security groups.
// Every edge opens exactly Port over tcp, from one security group to another.
type chain struct {
	stack *ltdplan.Stack
}

func newChain(stack *ltdplan.Stack) chain {
	return chain{stack: stack}
}

func (c chain) allow(from, to *ltdplan.Resource, description string) *ltdplan.Resource {
	return c.stack.Add(&ltdplan.Resource{
		ID:   fmt.Sprintf("%sFrom%s", to.ID, from.ID),
		Type: "AWS::EC2::SecurityGroupIngress",
		Properties: ltdplan.Props{
			"GroupId":               to.GetAtt("GroupId"),
			"SourceSecurityGroupId": from.GetAtt("GroupId"),
			"IpProtocol":            "tcp",
			"FromPort":              Port,
			"ToPort":                Port,
			"Description":           description,
		},
	})
}
