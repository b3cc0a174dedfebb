// Package ltdrds declares the Aurora PostgreSQL cluster, its admin secret and
// the security groups that gate access to it.
package ltdrds

import (
	"fmt"

	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdplan"
	"github.com/penysho/load-test-demo/ltdstack/ltdnetwork"
)

const (
	// Port is the only port any database ingress rule opens.
	Port = 5432

	engine         = "aurora-postgresql"
	engineVersion  = "16.2"
	parameterGroup = "aurora-postgresql16"
	instanceClass  = "db.t3.medium"
	adminUsername  = "postgresAdmin"

	// ExcludeCharacters never appear in generated passwords so they can be
	// embedded in connection strings unescaped.
	ExcludeCharacters = "\"@'%$#&().,{_?<≠^>[:;`+*!]}=~|¥/\\"

	rotationTransform = "AWS::SecretsManager-2020-07-23"
)

// Database is the handle of the database stack.
type Database interface {
	StackName() string
	ClientSecurityGroupID() ltdplan.Value
	ClusterEndpoint() ltdplan.Value
	AdminSecretArn() ltdplan.Value
	// Consume records that stack reads from this handle.
	Consume(stack *ltdplan.Stack)
}

// Props configures the database stack.
type Props struct {
	Network ltdnetwork.Network
}

type database struct {
	stack    *ltdplan.Stack
	clientSG *ltdplan.Resource
	cluster  *ltdplan.Resource
	secret   *ltdplan.Resource
}

// New declares the database stack.
func New(g *ltdplan.Graph, cfg ltdenv.Config, props Props) Database {
	stack := g.NewStack(cfg.StackName(ltdenv.KindDatabase),
		fmt.Sprintf("%s Aurora PostgreSQL (env: %s)", cfg.ProjectName, cfg.Env))
	props.Network.Consume(stack)

	sg := func(id, suffix, label string) *ltdplan.Resource {
		return stack.Add(&ltdplan.Resource{
			ID:   id,
			Type: "AWS::EC2::SecurityGroup",
			Properties: ltdplan.Props{
				"GroupName":        cfg.ResourceName("rds", suffix),
				"GroupDescription": fmt.Sprintf("%s RDS %s Security Group.", cfg.ResourceName(), label),
				"VpcId":            props.Network.VpcID(),
				"SecurityGroupEgress": []any{ltdplan.Props{
					"CidrIp":      "0.0.0.0/0",
					"IpProtocol":  "-1",
					"Description": "Allow all outbound traffic by default",
				}},
			},
		})
	}
	clientSG := sg("RdsClientSecurityGroup", "client", "Client")
	rotateSG := sg("RdsRotateSecretsSecurityGroup", "rotate-secrets", "Rotate Secrets")
	proxySG := sg("RdsProxySecurityGroup", "proxy", "Proxy")
	rdsSG := stack.Add(&ltdplan.Resource{
		ID:   "RdsSecurityGroup",
		Type: "AWS::EC2::SecurityGroup",
		Properties: ltdplan.Props{
			"GroupName":        cfg.ResourceName("rds"),
			"GroupDescription": fmt.Sprintf("%s RDS Security Group.", cfg.ResourceName()),
			"VpcId":            props.Network.VpcID(),
		},
	})

	chain := newChain(stack)
	chain.allow(clientSG, proxySG, "Allow access from RDS client")
	chain.allow(clientSG, rdsSG, "Allow access from RDS client")
	chain.allow(rotateSG, rdsSG, "Allow access from secret rotation")
	chain.allow(proxySG, rdsSG, "Allow access from RDS proxy")

	secret := stack.Add(&ltdplan.Resource{
		ID:   "RdsAdminSecret",
		Type: "AWS::SecretsManager::Secret",
		Properties: ltdplan.Props{
			"Name":        cfg.ProjectName + "-" + string(cfg.Env) + "/rds/admin-secret",
			"Description": fmt.Sprintf("%s RDS admin credentials", cfg.ResourceName()),
			"GenerateSecretString": ltdplan.Props{
				"ExcludeCharacters":       ExcludeCharacters,
				"GenerateStringKey":       "password",
				"PasswordLength":          32,
				"RequireEachIncludedType": true,
				"SecretStringTemplate":    fmt.Sprintf(`{"username": %q}`, adminUsername),
			},
		},
	})

	subnetGroup := stack.Add(&ltdplan.Resource{
		ID:   "SubnetGroup",
		Type: "AWS::RDS::DBSubnetGroup",
		Properties: ltdplan.Props{
			"DBSubnetGroupName":        cfg.ResourceName(),
			"DBSubnetGroupDescription": cfg.ResourceName() + " RDS subnet group",
			"SubnetIds":                ltdplan.Values(props.Network.PublicSubnetIDs()...),
		},
	})
	stack.Note(ltdplan.NoteWarning, "ltd:rds:public-subnets",
		"database instances are placed in public subnets and are publicly accessible")

	params := stack.Add(&ltdplan.Resource{
		ID:   "ParameterGroup",
		Type: "AWS::RDS::DBParameterGroup",
		Properties: ltdplan.Props{
			"DBParameterGroupName": cfg.ResourceName(),
			"Description":          fmt.Sprintf("%s %s %s", cfg.ResourceName(), engine, engineVersion),
			"Family":               parameterGroup,
		},
	})

	cluster := stack.Add(&ltdplan.Resource{
		ID:             "RdsCluster",
		Type:           "AWS::RDS::DBCluster",
		DeletionPolicy: ltdplan.DeletionPolicySnapshot,
		Properties: ltdplan.Props{
			"DBClusterIdentifier":             cfg.ResourceName("cluster"),
			"Engine":                          engine,
			"EngineVersion":                   engineVersion,
			"Port":                            Port,
			"MasterUsername":                  secretField(secret, "username"),
			"MasterUserPassword":              secretField(secret, "password"),
			"DBSubnetGroupName":               subnetGroup.Ref(),
			"VpcSecurityGroupIds":             []any{rdsSG.GetAtt("GroupId")},
			"StorageEncrypted":                true,
			"DeletionProtection":              false,
			"EnableIAMDatabaseAuthentication": true,
			"CopyTagsToSnapshot":              true,
		},
	})

	instance := func(id, name string, tier int, dependsOn ...string) *ltdplan.Resource {
		return stack.Add(&ltdplan.Resource{
			ID:             id,
			Type:           "AWS::RDS::DBInstance",
			DeletionPolicy: ltdplan.DeletionPolicyDelete,
			DependsOn:      dependsOn,
			Properties: ltdplan.Props{
				"DBInstanceIdentifier": name,
				"DBClusterIdentifier":  cluster.Ref(),
				"DBInstanceClass":      instanceClass,
				"Engine":               engine,
				"DBParameterGroupName": params.Ref(),
				"PubliclyAccessible":   true,
				"PromotionTier":        tier,
			},
		})
	}
	writer := instance("RdsWriterInstance", cfg.ResourceName("writer"), 0)
	instance("RdsReaderInstance1", cfg.ResourceName("reader", "1"), 2, writer.ID)

	attachment := stack.Add(&ltdplan.Resource{
		ID:   "RdsSecretAttachment",
		Type: "AWS::SecretsManager::SecretTargetAttachment",
		Properties: ltdplan.Props{
			"SecretId":   secret.Ref(),
			"TargetId":   cluster.Ref(),
			"TargetType": "AWS::RDS::DBCluster",
		},
	})

	rotation := cfg.Settings.SecretRotation
	if rotation.Enabled {
		stack.AddTransform(rotationTransform)
		stack.Add(&ltdplan.Resource{
			ID:        "RdsAdminSecretRotation",
			Type:      "AWS::SecretsManager::RotationSchedule",
			DependsOn: []string{writer.ID},
			Properties: ltdplan.Props{
				"SecretId": attachment.Ref(),
				"HostedRotationLambda": ltdplan.Props{
					"RotationType":        "PostgreSQLSingleUser",
					"RotationLambdaName":  cfg.ResourceName("rds", "rotation"),
					"ExcludeCharacters":   ExcludeCharacters,
					"VpcSecurityGroupIds": rotateSG.GetAtt("GroupId"),
					"VpcSubnetIds": ltdplan.Join{
						Delimiter: ",",
						Parts:     ltdplan.Values(props.Network.PrivateSubnetIDs()...),
					},
				},
				"RotationRules": ltdplan.Props{
					"AutomaticallyAfterDays": rotation.IntervalDays,
				},
			},
		})
	} else {
		stack.Note(ltdplan.NoteInfo, "ltd:rds:rotation-disabled",
			"scheduled rotation of the admin secret is disabled")
	}

	stack.Export("RdsClientSecurityGroupId", "Security group granting access to the database", clientSG.GetAtt("GroupId"))
	stack.Export("ClusterEndpoint", "Writer endpoint of the cluster", cluster.GetAtt("Endpoint.Address"))
	stack.Export("AdminSecretArn", "Admin credentials secret", secret.Ref())

	return &database{stack: stack, clientSG: clientSG, cluster: cluster, secret: secret}
}

// secretField is a dynamic reference into the JSON of the admin secret.
func secretField(secret *ltdplan.Resource, field string) ltdplan.Join {
	return ltdplan.Joinf("{{resolve:secretsmanager:", secret.Ref(), ":SecretString:"+field+"::}}")
}

func (d *database) StackName() string                    { return d.stack.Name }
func (d *database) ClientSecurityGroupID() ltdplan.Value { return d.clientSG.GetAtt("GroupId") }
func (d *database) ClusterEndpoint() ltdplan.Value       { return d.cluster.GetAtt("Endpoint.Address") }
func (d *database) AdminSecretArn() ltdplan.Value        { return d.secret.Ref() }

func (d *database) Consume(stack *ltdplan.Stack) {
	stack.DependOn(d.stack.Name, "database must exist first")
}
