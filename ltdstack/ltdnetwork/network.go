// Package ltdnetwork imports the shared VPC that every other stack runs in.
package ltdnetwork

import (
	"fmt"

	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdplan"
)

// Network is the handle of the imported VPC.
type Network interface {
	// StackName is the name of the (resource-less) network stack.
	StackName() string
	VpcID() ltdplan.Value
	AvailabilityZones() []string
	PublicSubnetIDs() []ltdplan.Value
	PrivateSubnetIDs() []ltdplan.Value
	// Consume records that stack reads from this handle.
	Consume(stack *ltdplan.Stack)
}

type network struct {
	stack   *ltdplan.Stack
	vpcID   ltdplan.Value
	azs     []string
	public  []ltdplan.Value
	private []ltdplan.Value
}

// ExportName returns the name the shared network publishes a value under.
func ExportName(env ltdenv.EnvCode, resource string) string {
	return fmt.Sprintf("shared-vpc-%s-%s", env, resource)
}

// New declares the network stack.
func New(g *ltdplan.Graph, cfg ltdenv.Config) Network {
	stack := g.NewStack(cfg.StackName(ltdenv.KindNetwork),
		fmt.Sprintf("%s shared VPC import (env: %s)", cfg.ProjectName, cfg.Env))

	imp := func(name string) ltdplan.Value {
		return ltdplan.ImportValue{Name: ExportName(cfg.Env, name)}
	}

	return &network{
		stack:   stack,
		vpcID:   imp("Vpc"),
		azs:     append([]string(nil), cfg.AvailabilityZones...),
		public:  []ltdplan.Value{imp("PublicSubnet1"), imp("PublicSubnet2")},
		private: []ltdplan.Value{imp("PrivateSubnet1"), imp("PrivateSubnet2")},
	}
}

func (n *network) StackName() string                 { return n.stack.Name }
func (n *network) VpcID() ltdplan.Value              { return n.vpcID }
func (n *network) AvailabilityZones() []string       { return append([]string(nil), n.azs...) }
func (n *network) PublicSubnetIDs() []ltdplan.Value  { return append([]ltdplan.Value(nil), n.public...) }
func (n *network) PrivateSubnetIDs() []ltdplan.Value { return append([]ltdplan.Value(nil), n.private...) }

func (n *network) Consume(stack *ltdplan.Stack) {
	stack.DependOn(n.stack.Name, "VPC must be imported first")
}
