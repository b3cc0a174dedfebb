// Package ltdstack composes the load-test-demo stacks into one plan.
package ltdstack

import (
	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/penysho/load-test-demo/ltdplan"
	"github.com/penysho/load-test-demo/ltdstack/ltdapp"
	"github.com/penysho/load-test-demo/ltdstack/ltdci"
	"github.com/penysho/load-test-demo/ltdstack/ltdelb"
	"github.com/penysho/load-test-demo/ltdstack/ltdnetwork"
	"github.com/penysho/load-test-demo/ltdstack/ltdrds"
)

// Deployment is the compiled plan of one environment with the handles of
// every stack in it.
type Deployment struct {
	Config       ltdenv.Config
	Graph        *ltdplan.Graph
	Network      ltdnetwork.Network
	LoadBalancer ltdelb.LoadBalancer
	Database     ltdrds.Database
	Application  ltdapp.Application
	CI           ltdci.CI
}

// Build declares every stack for cfg. Stacks are constructed strictly after
// the stacks whose handles they consume.
func Build(cfg ltdenv.Config) (*Deployment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Deployment{Config: cfg, Graph: ltdplan.NewGraph()}
	d.Network = ltdnetwork.New(d.Graph, cfg)
	d.LoadBalancer = ltdelb.New(d.Graph, cfg, ltdelb.Props{Network: d.Network})
	d.Database = ltdrds.New(d.Graph, cfg, ltdrds.Props{Network: d.Network})
	d.Application = ltdapp.New(d.Graph, cfg, ltdapp.Props{
		Network:      d.Network,
		LoadBalancer: d.LoadBalancer,
		Database:     d.Database,
	})
	d.CI = ltdci.New(d.Graph, cfg, ltdci.Props{Application: d.Application})

	if err := d.Graph.Validate(); err != nil {
		return nil, errors.Wrapf(err, "build %s plan", cfg.Env)
	}
	return d, nil
}
