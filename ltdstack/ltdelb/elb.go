// Package ltdelb declares the internet-facing Application Load Balancer, its
// security groups, the deny-by-default listeners and the DNS alias.
package ltdelb

import (
	"fmt"

	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdplan"
	"github.com/penysho/load-test-demo/ltdstack/ltdnetwork"
)

// Listener ports.
const (
	HTTPSPort = 443
	HTTPPort  = 80
	GreenPort = 10443
)

// LoadBalancer is the handle of the load balancer stack.
type LoadBalancer interface {
	StackName() string
	LoadBalancerArn() ltdplan.Value
	Listener443Arn() ltdplan.Value
	Listener80Arn() ltdplan.Value
	GreenListenerArn() ltdplan.Value
	TargetSecurityGroupID() ltdplan.Value
	// Consume records that stack reads from this handle.
	Consume(stack *ltdplan.Stack)
}

// Props configures the load balancer stack.
type Props struct {
	Network ltdnetwork.Network
}

type loadBalancer struct {
	stack          *ltdplan.Stack
	lb             *ltdplan.Resource
	listener443    *ltdplan.Resource
	listener80     *ltdplan.Resource
	greenListener  *ltdplan.Resource
	targetSecGroup *ltdplan.Resource
}

const (
	elbGroupDescription    = "This security group is allowed in the security group of the resource set in the Target Group."
	targetGroupDescription = "This security group allows interaction with the ELBs set up in the target group. " +
		"It is also allowed in the security group of the RDS to which the connection target is connected."
)

// New declares the load balancer stack.
func New(g *ltdplan.Graph, cfg ltdenv.Config, props Props) LoadBalancer {
	stack := g.NewStack(cfg.StackName(ltdenv.KindLoadBalancer),
		fmt.Sprintf("%s load balancer (env: %s)", cfg.ProjectName, cfg.Env))
	props.Network.Consume(stack)

	add := func(r *ltdplan.Resource) *ltdplan.Resource {
		r.DeletionPolicy = ltdplan.DeletionPolicyDelete
		return stack.Add(r)
	}

	elbSG := add(&ltdplan.Resource{
		ID:   "ElbSecurityGroup",
		Type: "AWS::EC2::SecurityGroup",
		Properties: ltdplan.Props{
			"GroupName":        cfg.ResourceName("elb"),
			"GroupDescription": elbGroupDescription,
			"VpcId":            props.Network.VpcID(),
		},
	})

	targetSG := add(&ltdplan.Resource{
		ID:   "ElbTargetSecurityGroup",
		Type: "AWS::EC2::SecurityGroup",
		Properties: ltdplan.Props{
			"GroupName":        cfg.ResourceName("elb", "target"),
			"GroupDescription": targetGroupDescription,
			"VpcId":            props.Network.VpcID(),
			"SecurityGroupIngress": []any{ltdplan.Props{
				"IpProtocol":            "-1",
				"SourceSecurityGroupId": elbSG.GetAtt("GroupId"),
			}},
		},
	})

	lb := add(&ltdplan.Resource{
		ID:   "LoadBalancer",
		Type: "AWS::ElasticLoadBalancingV2::LoadBalancer",
		Properties: ltdplan.Props{
			"Name":          cfg.ResourceName(),
			"IpAddressType": "ipv4",
			"Type":          "application",
			"Scheme":        "internet-facing",
			"LoadBalancerAttributes": []any{
				ltdplan.Props{"Key": "deletion_protection.enabled", "Value": "false"},
				ltdplan.Props{"Key": "idle_timeout.timeout_seconds", "Value": "60"},
			},
			"SecurityGroups": []any{
				elbSG.GetAtt("GroupId"),
				cfg.Settings.DefaultElbSecurityGroupID,
			},
			"Subnets": ltdplan.Values(props.Network.PublicSubnetIDs()...),
		},
	})

	listener := func(id string, port int, protocol, certificateArn string) *ltdplan.Resource {
		p := ltdplan.Props{
			"LoadBalancerArn": lb.Ref(),
			"Port":            port,
			"Protocol":        protocol,
			"DefaultActions":  []any{denyAction()},
		}
		if certificateArn != "" {
			p["Certificates"] = []any{ltdplan.Props{"CertificateArn": certificateArn}}
		}
		return add(&ltdplan.Resource{
			ID:         id,
			Type:       "AWS::ElasticLoadBalancingV2::Listener",
			Properties: p,
		})
	}
	l443 := listener("Elb443Listener", HTTPSPort, "HTTPS", cfg.Settings.CertificateArn)
	l80 := listener("Elb80Listener", HTTPPort, "HTTP", "")
	green := listener("GreenListener", GreenPort, "HTTP", "")

	add(&ltdplan.Resource{
		ID:   "RecordSet",
		Type: "AWS::Route53::RecordSet",
		Properties: ltdplan.Props{
			"Name":         cfg.Settings.APIHostname,
			"HostedZoneId": cfg.Settings.HostedZoneID,
			"Type":         "A",
			"AliasTarget": ltdplan.Props{
				"DNSName":      lb.GetAtt("DNSName"),
				"HostedZoneId": lb.GetAtt("CanonicalHostedZoneID"),
			},
		},
	})

	stack.Export("LoadBalancerArn", "Load balancer ARN", lb.Ref())
	stack.Export("Elb80ListenerArn", "HTTP listener ARN", l80.Ref())
	stack.Export("Elb443ListenerArn", "HTTPS listener ARN", l443.Ref())
	stack.Export("GreenListenerArn", "Blue/green test listener ARN", green.Ref())
	stack.Export("ElbTargetSecurityGroupId", "Security group for load balancer targets", targetSG.GetAtt("GroupId"))

	return &loadBalancer{
		stack:          stack,
		lb:             lb,
		listener443:    l443,
		listener80:     l80,
		greenListener:  green,
		targetSecGroup: targetSG,
	}
}

// denyAction answers every request that no routing rule matched.
func denyAction() ltdplan.Props {
	return ltdplan.Props{
		"Type": "fixed-response",
		"FixedResponseConfig": ltdplan.Props{
			"ContentType": "text/plain",
			"StatusCode":  "403",
		},
	}
}

func (l *loadBalancer) StackName() string                    { return l.stack.Name }
func (l *loadBalancer) LoadBalancerArn() ltdplan.Value       { return l.lb.Ref() }
func (l *loadBalancer) Listener443Arn() ltdplan.Value        { return l.listener443.Ref() }
func (l *loadBalancer) Listener80Arn() ltdplan.Value         { return l.listener80.Ref() }
func (l *loadBalancer) GreenListenerArn() ltdplan.Value      { return l.greenListener.Ref() }
func (l *loadBalancer) TargetSecurityGroupID() ltdplan.Value { return l.targetSecGroup.GetAtt("GroupId") }

func (l *loadBalancer) Consume(stack *ltdplan.Stack) {
	stack.DependOn(l.stack.Name, "load balancer and listeners must exist first")
}
