package ltdplan_test

import (
	"testing"

	"github.com/penysho/load-test-demo/ltdplan"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStackGraph(t *testing.T) (*ltdplan.Graph, *ltdplan.Stack, *ltdplan.Stack) {
	t.Helper()

	g := ltdplan.NewGraph()
	net := g.NewStack("net", "network")
	sg := net.Add(&ltdplan.Resource{
		ID:   "SecurityGroup",
		Type: "AWS::EC2::SecurityGroup",
		Properties: ltdplan.Props{
			"VpcId": ltdplan.ImportValue{Name: "shared-vpc-dev-Vpc"},
		},
	})
	net.Export("SecurityGroupId", "", sg.GetAtt("GroupId"))

	app := g.NewStack("app", "application")
	app.DependOn(net.Name, "needs the security group")
	app.Add(&ltdplan.Resource{
		ID:   "Service",
		Type: "AWS::ECS::Service",
		Properties: ltdplan.Props{
			"SecurityGroups": []any{sg.GetAtt("GroupId")},
			"Subnets":        ltdplan.Values(ltdplan.ImportValue{Name: "shared-vpc-dev-PublicSubnet1"}),
		},
	})
	return g, net, app
}

func TestGraphValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		g, _, _ := twoStackGraph(t)
		require.NoError(t, g.Validate())
	})

	t.Run("unknown resource", func(t *testing.T) {
		t.Parallel()
		g, _, app := twoStackGraph(t)
		app.Add(&ltdplan.Resource{
			ID:         "Broken",
			Type:       "AWS::SNS::Topic",
			Properties: ltdplan.Props{"X": ltdplan.Ref{Stack: "net", Resource: "Missing"}},
		})
		require.ErrorContains(t, g.Validate(), `Broken.X references unknown resource "Missing" in "net"`)
	})

	t.Run("undeclared cross-stack reference", func(t *testing.T) {
		t.Parallel()
		g := ltdplan.NewGraph()
		a := g.NewStack("a", "")
		topic := a.Add(&ltdplan.Resource{ID: "Topic", Type: "AWS::SNS::Topic"})
		b := g.NewStack("b", "")
		b.Add(&ltdplan.Resource{
			ID:         "Sub",
			Type:       "AWS::SNS::Subscription",
			Properties: ltdplan.Props{"TopicArn": topic.Ref()},
		})
		require.ErrorContains(t, g.Validate(), `references "a" without depending on it`)
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		g, net, app := twoStackGraph(t)
		net.DependOn(app.Name, "backwards")
		require.ErrorContains(t, g.Validate(), "dependency cycle between stacks: net, app")
	})

	t.Run("unknown depends on", func(t *testing.T) {
		t.Parallel()
		g, _, app := twoStackGraph(t)
		app.Resource("Service").DependsOn = []string{"Nope"}
		require.ErrorContains(t, g.Validate(), `Service depends on unknown resource "Nope"`)
	})

	t.Run("duplicate export", func(t *testing.T) {
		t.Parallel()
		g, net, _ := twoStackGraph(t)
		net.Export("SecurityGroupId", "", "sg-123")
		require.ErrorContains(t, g.Validate(), `export "net-SecurityGroupId" already declared`)
	})
}

func TestGraphOrder(t *testing.T) {
	t.Parallel()

	g := ltdplan.NewGraph()
	ci := g.NewStack("ci", "")
	app := g.NewStack("app", "")
	db := g.NewStack("db", "")
	g.NewStack("vpc", "")
	ci.DependOn("app", "")
	app.DependOn("db", "")
	app.DependOn("vpc", "")
	db.DependOn("vpc", "")

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"vpc", "db", "app", "ci"}, lo.Map(order, func(s *ltdplan.Stack, _ int) string { return s.Name }))
}

func TestDuplicatesPanic(t *testing.T) {
	t.Parallel()

	g := ltdplan.NewGraph()
	s := g.NewStack("a", "")
	assert.Panics(t, func() { g.NewStack("a", "") })

	s.Add(&ltdplan.Resource{ID: "X", Type: "AWS::SNS::Topic"})
	assert.Panics(t, func() { s.Add(&ltdplan.Resource{ID: "X", Type: "AWS::SNS::Topic"}) })
}

func TestImports(t *testing.T) {
	t.Parallel()

	g, _, _ := twoStackGraph(t)
	assert.Equal(t, []string{"shared-vpc-dev-PublicSubnet1", "shared-vpc-dev-Vpc"}, g.Imports())
}

func TestDocument(t *testing.T) {
	t.Parallel()

	g, net, app := twoStackGraph(t)
	app.AddTransform("AWS::SecretsManager-2020-07-23")
	app.AddTransform("AWS::SecretsManager-2020-07-23")
	app.Resource("Service").DeletionPolicy = ltdplan.DeletionPolicyRetain
	app.Resource("Service").Properties["Name"] = ltdplan.Joinf("svc-", ltdplan.Region)

	doc := ltdplan.Document(app)
	assert.Equal(t, []any{"AWS::SecretsManager-2020-07-23"}, doc["Transform"])

	svc := doc["Resources"].(map[string]any)["Service"].(map[string]any)
	assert.Equal(t, "Retain", svc["DeletionPolicy"])
	props := svc["Properties"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"Fn::GetAtt": []any{"net/SecurityGroup", "GroupId"}}}, props["SecurityGroups"])
	assert.Equal(t, map[string]any{"Fn::Join": []any{"", []any{"svc-", map[string]any{"Ref": "AWS::Region"}}}}, props["Name"])

	netDoc := ltdplan.Document(net)
	out := netDoc["Outputs"].(map[string]any)["SecurityGroupId"].(map[string]any)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"SecurityGroup", "GroupId"}}, out["Value"])
	assert.Equal(t, map[string]any{"Name": "net-SecurityGroupId"}, out["Export"])

	docs, err := ltdplan.DocumentGraph(g)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "net", docs[0]["StackName"])
}
