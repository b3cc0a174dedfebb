// Package ltdapp declares the ECS Fargate service, its task definition and
// roles, and the CodeDeploy blue/green deployment group that drives releases.
package ltdapp

import (
	"fmt"
	"strconv"

	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdplan"
	"github.com/penysho/load-test-demo/ltdstack/ltdelb"
	"github.com/penysho/load-test-demo/ltdstack/ltdiam"
	"github.com/penysho/load-test-demo/ltdstack/ltdnetwork"
	"github.com/penysho/load-test-demo/ltdstack/ltdrds"
	"github.com/penysho/load-test-demo/ltdstack/ltdrepos"
)

const (
	// ContainerName is the name of the single container of the task.
	ContainerName = "app"
	// ContainerPort is the port the service listens on.
	ContainerPort = 8011
	// HealthCheckPath answers 200 once the service is ready.
	HealthCheckPath = "/health"

	cpu               = "256"
	memory            = "512"
	logRetentionDays  = 90
	errorFilter       = "?ERROR ?error ?Error"
	waitMinutes       = 30
	terminateMinutes  = 30
	deploymentConfig  = "CodeDeployDefault.ECSAllAtOnce"
	listenerRuleOrder = 1
)

// Application is the handle of the application stack.
type Application interface {
	StackName() string
	Repository() ltdrepos.Repository
	ClusterName() ltdplan.Value
	ServiceName() ltdplan.Value
	TaskRoleArn() ltdplan.Value
	TaskExecutionRoleArn() ltdplan.Value
	CodeDeployApplicationName() ltdplan.Value
	DeploymentGroupName() ltdplan.Value
	// Consume records that stack reads from this handle.
	Consume(stack *ltdplan.Stack)
}

// Props configures the application stack.
type Props struct {
	Network      ltdnetwork.Network
	LoadBalancer ltdelb.LoadBalancer
	Database     ltdrds.Database
}

type application struct {
	stack           *ltdplan.Stack
	repo            ltdrepos.Repository
	cluster         *ltdplan.Resource
	service         *ltdplan.Resource
	taskRole        *ltdplan.Resource
	executionRole   *ltdplan.Resource
	codeDeployApp   *ltdplan.Resource
	deploymentGroup *ltdplan.Resource
}

// New declares the application stack.
func New(g *ltdplan.Graph, cfg ltdenv.Config, props Props) Application {
	stack := g.NewStack(cfg.StackName(ltdenv.KindApplication),
		fmt.Sprintf("%s ECS service and blue/green deployment (env: %s)", cfg.ProjectName, cfg.Env))
	props.Network.Consume(stack)
	props.LoadBalancer.Consume(stack)
	props.Database.Consume(stack)

	app := &application{stack: stack}

	app.cluster = stack.Add(&ltdplan.Resource{
		ID:         "EcsCluster",
		Type:       "AWS::ECS::Cluster",
		Properties: ltdplan.Props{"ClusterName": cfg.ResourceName()},
	})

	blue := targetGroup(stack, cfg, props.Network, "BlueTargetGroup", "blue")
	green := targetGroup(stack, cfg, props.Network, "GreenTargetGroup", "green")
	prodRule := listenerRule(stack, "ProdListenerRule", props.LoadBalancer.Listener443Arn(), blue)
	listenerRule(stack, "TestListenerRule", props.LoadBalancer.GreenListenerArn(), green)

	logGroup := stack.Add(&ltdplan.Resource{
		ID:             "LogGroup",
		Type:           "AWS::Logs::LogGroup",
		DeletionPolicy: ltdplan.DeletionPolicyRetain,
		Properties: ltdplan.Props{
			"LogGroupName":    "/ecs/" + cfg.ResourceName(),
			"RetentionInDays": logRetentionDays,
		},
	})
	stack.Add(&ltdplan.Resource{
		ID:   "MetricFilterForServerError",
		Type: "AWS::Logs::MetricFilter",
		Properties: ltdplan.Props{
			"FilterName":    "server-error",
			"LogGroupName":  logGroup.Ref(),
			"FilterPattern": errorFilter,
			"MetricTransformations": []any{ltdplan.Props{
				"MetricName":      cfg.ResourceName("server", "error"),
				"MetricNamespace": cfg.ResourceName(),
				"MetricValue":     "1",
			}},
		},
	})

	app.repo = ltdrepos.New(stack, ltdrepos.Props{RepositoryName: cfg.ResourceName()}).MainRepository()

	app.executionRole = stack.Add(&ltdplan.Resource{
		ID:   "EcsTaskExecutionRole",
		Type: "AWS::IAM::Role",
		Properties: ltdplan.Props{
			"RoleName":                 cfg.ResourceName("task", "execution", "role"),
			"AssumeRolePolicyDocument": ltdiam.ServiceTrust("ecs-tasks.amazonaws.com"),
			"ManagedPolicyArns": []any{
				ltdiam.ManagedPolicyArn("service-role/AmazonECSTaskExecutionRolePolicy"),
			},
			"Policies": []any{ltdiam.InlinePolicy(cfg.ResourceName("task", "execution", "role", "policy"),
				ltdiam.Allow([]string{"s3:GetObject"}, cfg.Settings.EcsEnvFileS3Arn),
			)},
		},
	})

	app.taskRole = stack.Add(&ltdplan.Resource{
		ID:   "EcsTaskRole",
		Type: "AWS::IAM::Role",
		Properties: ltdplan.Props{
			"RoleName":                 cfg.ResourceName("task", "role"),
			"AssumeRolePolicyDocument": ltdiam.ServiceTrust("ecs-tasks.amazonaws.com"),
			"Policies": []any{ltdiam.InlinePolicy(cfg.ResourceName("task", "role", "policy"),
				ltdiam.Allow([]string{
					"ssmmessages:CreateControlChannel",
					"ssmmessages:CreateDataChannel",
					"ssmmessages:OpenControlChannel",
					"ssmmessages:OpenDataChannel",
				}, "*"),
			)},
		},
	})

	taskDef := stack.Add(&ltdplan.Resource{
		ID:   "EcsTaskDefinition",
		Type: "AWS::ECS::TaskDefinition",
		Properties: ltdplan.Props{
			"Family":                  cfg.ResourceName(),
			"Cpu":                     cpu,
			"Memory":                  memory,
			"NetworkMode":             "awsvpc",
			"RequiresCompatibilities": []any{"FARGATE"},
			"ExecutionRoleArn":        app.executionRole.GetAtt("Arn"),
			"TaskRoleArn":             app.taskRole.GetAtt("Arn"),
			"ContainerDefinitions": []any{ltdplan.Props{
				"Name":      ContainerName,
				"Image":     ltdplan.Join{Delimiter: ":", Parts: []any{app.repo.URI(), "latest"}},
				"Essential": true,
				"LogConfiguration": ltdplan.Props{
					"LogDriver": "awslogs",
					"Options": ltdplan.Props{
						"awslogs-group":         logGroup.Ref(),
						"awslogs-region":        ltdplan.Region,
						"awslogs-stream-prefix": "ecs",
					},
				},
				"PortMappings": []any{ltdplan.Props{
					"ContainerPort": ContainerPort,
					"HostPort":      ContainerPort,
					"Protocol":      "tcp",
				}},
				"EnvironmentFiles": []any{ltdplan.Props{
					"Type":  "s3",
					"Value": cfg.Settings.EcsEnvFileS3Arn,
				}},
			}},
		},
	})

	app.service = stack.Add(&ltdplan.Resource{
		ID:        "EcsService",
		Type:      "AWS::ECS::Service",
		DependsOn: []string{prodRule.ID},
		Properties: ltdplan.Props{
			"ServiceName":          cfg.ResourceName("service"),
			"Cluster":              app.cluster.Ref(),
			"TaskDefinition":       taskDef.Ref(),
			"LaunchType":           "FARGATE",
			"DesiredCount":         1,
			"EnableExecuteCommand": true,
			"DeploymentController": ltdplan.Props{"Type": "CODE_DEPLOY"},
			"LoadBalancers": []any{ltdplan.Props{
				"ContainerName":  ContainerName,
				"ContainerPort":  ContainerPort,
				"TargetGroupArn": blue.Ref(),
			}},
			"NetworkConfiguration": ltdplan.Props{
				"AwsvpcConfiguration": ltdplan.Props{
					"AssignPublicIp": "ENABLED",
					"SecurityGroups": []any{
						props.LoadBalancer.TargetSecurityGroupID(),
						props.Database.ClientSecurityGroupID(),
					},
					"Subnets": ltdplan.Values(props.Network.PublicSubnetIDs()...),
				},
			},
		},
	})

	app.codeDeployApp = stack.Add(&ltdplan.Resource{
		ID:   "CodeDeployApplication",
		Type: "AWS::CodeDeploy::Application",
		Properties: ltdplan.Props{
			"ApplicationName": cfg.ResourceName(),
			"ComputePlatform": "ECS",
		},
	})

	codeDeployRole := stack.Add(&ltdplan.Resource{
		ID:   "CodeDeployServiceRole",
		Type: "AWS::IAM::Role",
		Properties: ltdplan.Props{
			"RoleName":                 cfg.ResourceName("codedeploy", "service", "role"),
			"AssumeRolePolicyDocument": ltdiam.ServiceTrust("codedeploy.amazonaws.com"),
			"ManagedPolicyArns":        []any{ltdiam.ManagedPolicyArn("AWSCodeDeployRoleForECS")},
		},
	})

	app.deploymentGroup = stack.Add(&ltdplan.Resource{
		ID:   "DeploymentGroup",
		Type: "AWS::CodeDeploy::DeploymentGroup",
		Properties: ltdplan.Props{
			"ApplicationName":      app.codeDeployApp.Ref(),
			"DeploymentGroupName":  cfg.ResourceName("group1"),
			"DeploymentConfigName": deploymentConfig,
			"ServiceRoleArn":       codeDeployRole.GetAtt("Arn"),
			"DeploymentStyle": ltdplan.Props{
				"DeploymentOption": "WITH_TRAFFIC_CONTROL",
				"DeploymentType":   "BLUE_GREEN",
			},
			"AutoRollbackConfiguration": ltdplan.Props{
				"Enabled": true,
				"Events":  []any{"DEPLOYMENT_FAILURE"},
			},
			"BlueGreenDeploymentConfiguration": ltdplan.Props{
				"DeploymentReadyOption": ltdplan.Props{
					"ActionOnTimeout":   "STOP_DEPLOYMENT",
					"WaitTimeInMinutes": waitMinutes,
				},
				"TerminateBlueInstancesOnDeploymentSuccess": ltdplan.Props{
					"Action":                       "TERMINATE",
					"TerminationWaitTimeInMinutes": terminateMinutes,
				},
			},
			"ECSServices": []any{ltdplan.Props{
				"ClusterName": app.cluster.Ref(),
				"ServiceName": app.service.GetAtt("Name"),
			}},
			"LoadBalancerInfo": ltdplan.Props{
				"TargetGroupPairInfoList": []any{ltdplan.Props{
					"TargetGroups": []any{
						ltdplan.Props{"Name": blue.GetAtt("TargetGroupName")},
						ltdplan.Props{"Name": green.GetAtt("TargetGroupName")},
					},
					"ProdTrafficRoute": ltdplan.Props{
						"ListenerArns": []any{props.LoadBalancer.Listener443Arn()},
					},
					"TestTrafficRoute": ltdplan.Props{
						"ListenerArns": []any{props.LoadBalancer.GreenListenerArn()},
					},
				}},
			},
		},
	})

	stack.Export("ClusterName", "ECS cluster name", app.cluster.Ref())
	stack.Export("ServiceName", "ECS service name", app.service.GetAtt("Name"))
	stack.Export("CodeDeployApplicationName", "CodeDeploy application", app.codeDeployApp.Ref())
	stack.Export("DeploymentGroupName", "CodeDeploy deployment group", app.deploymentGroup.Ref())

	return app
}

func targetGroup(
	stack *ltdplan.Stack, cfg ltdenv.Config, network ltdnetwork.Network, id, color string,
) *ltdplan.Resource {
	return stack.Add(&ltdplan.Resource{
		ID:   id,
		Type: "AWS::ElasticLoadBalancingV2::TargetGroup",
		Properties: ltdplan.Props{
			"Name":            cfg.ResourceName(color),
			"VpcId":           network.VpcID(),
			"Protocol":        "HTTP",
			"Port":            ContainerPort,
			"TargetType":      "ip",
			"HealthCheckPath": HealthCheckPath,
			"HealthCheckPort": strconv.Itoa(ContainerPort),
		},
	})
}

// listenerRule forwards everything on listener to tg. CodeDeploy swaps the
// target group of these rules when it shifts traffic.
func listenerRule(stack *ltdplan.Stack, id string, listener ltdplan.Value, tg *ltdplan.Resource) *ltdplan.Resource {
	return stack.Add(&ltdplan.Resource{
		ID:   id,
		Type: "AWS::ElasticLoadBalancingV2::ListenerRule",
		Properties: ltdplan.Props{
			"ListenerArn": listener,
			"Priority":    listenerRuleOrder,
			"Conditions": []any{ltdplan.Props{
				"Field":  "path-pattern",
				"Values": []any{"/*"},
			}},
			"Actions": []any{ltdplan.Props{
				"Type":           "forward",
				"TargetGroupArn": tg.Ref(),
			}},
		},
	})
}

func (a *application) StackName() string                        { return a.stack.Name }
func (a *application) Repository() ltdrepos.Repository          { return a.repo }
func (a *application) ClusterName() ltdplan.Value               { return a.cluster.Ref() }
func (a *application) ServiceName() ltdplan.Value               { return a.service.GetAtt("Name") }
func (a *application) TaskRoleArn() ltdplan.Value               { return a.taskRole.GetAtt("Arn") }
func (a *application) TaskExecutionRoleArn() ltdplan.Value      { return a.executionRole.GetAtt("Arn") }
func (a *application) CodeDeployApplicationName() ltdplan.Value { return a.codeDeployApp.Ref() }
func (a *application) DeploymentGroupName() ltdplan.Value       { return a.deploymentGroup.Ref() }

func (a *application) Consume(stack *ltdplan.Stack) {
	stack.DependOn(a.stack.Name, "application resources must exist first")
}
