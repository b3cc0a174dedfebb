package ltdcdkutil

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdstack"
)

// SetupApp compiles the plan of cfg and renders every stack into app.
//
// It creates, in deployment order:
//  1. The network stack importing the shared VPC
//  2. The load balancer and database stacks (dependent on the network)
//  3. The application stack (dependent on all of the above)
//  4. The CI stack (dependent on the application)
func SetupApp(app awscdk.App, cfg ltdenv.Config) (*ltdstack.Deployment, Stacks, error) {
	d, err := ltdstack.Build(cfg)
	if err != nil {
		return nil, nil, err
	}

	stacks, err := Render(app, cfg, d.Graph)
	if err != nil {
		return nil, nil, err
	}
	return d, stacks, nil
}
