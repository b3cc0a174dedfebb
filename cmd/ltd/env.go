package main

import (
	"context"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/urfave/cli/v3"
)

func envCmd() *cli.Command {
	return &cli.Command{
		Name:   "env",
		Usage:  "Print the resolved settings of the target environment",
		Action: config.RunWithConfig(runEnv),
	}
}

func runEnv(ctx context.Context, cmd *cli.Command, cfg config.Config) error {
	icfg, err := infraConfig(cmd, cfg)
	if err != nil {
		return err
	}
	return doEnv(icfg, os.Stdout)
}

func doEnv(cfg ltdenv.Config, w io.Writer) error {
	account := cfg.Account
	if account == "" {
		account = "(from credentials)"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"environment", string(cfg.Env)},
		{"account", account},
		{"region", cfg.Region},
		{"availability zones", cfg.AvailabilityZones[0] + ", " + cfg.AvailabilityZones[1]},
		{"branch", cfg.Settings.Branch},
		{"api hostname", cfg.Settings.APIHostname},
		{"hosted zone", cfg.Settings.HostedZoneID},
		{"certificate", cfg.Settings.CertificateArn},
		{"default elb security group", cfg.Settings.DefaultElbSecurityGroupID},
		{"ecs env file", cfg.Settings.EcsEnvFileS3Arn},
		{"oidc subject", cfg.SourceSubject()},
	}
	if cfg.Settings.SecretRotation.Enabled {
		rows = append(rows, [2]string{"secret rotation", "every " + strconv.Itoa(cfg.Settings.SecretRotation.IntervalDays) + " days"})
	} else {
		rows = append(rows, [2]string{"secret rotation", "disabled"})
	}
	for _, kind := range []string{
		ltdenv.KindNetwork, ltdenv.KindLoadBalancer, ltdenv.KindDatabase, ltdenv.KindApplication, ltdenv.KindCI,
	} {
		rows = append(rows, [2]string{kind + " stack", cfg.StackName(kind)})
	}

	for _, row := range rows {
		writeOutputf(tw, "%s\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}
