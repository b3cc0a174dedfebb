package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudformation/cloudformationiface"
	"github.com/aws/aws-sdk-go/service/ecr"
	"github.com/aws/aws-sdk-go/service/ecr/ecriface"
	"github.com/goccy/go-yaml"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/cmdexec"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type call struct {
	Dir   string
	Env   []string
	Stdin string
	Args  []string
}

// fakeExec records commands instead of running them.
type fakeExec struct {
	dir   string
	env   []string
	calls *[]call
	fail  map[string]error
}

func newFakeExec() *fakeExec {
	return &fakeExec{dir: "/project", calls: &[]call{}, fail: map[string]error{}}
}

func (f *fakeExec) WithOutput(_, _ io.Writer) cmdexec.Executor { return f }

func (f *fakeExec) InSubdir(sub string) cmdexec.Executor {
	return &fakeExec{dir: filepath.Join(f.dir, sub), env: f.env, calls: f.calls, fail: f.fail}
}

func (f *fakeExec) WithEnv(k, v string) cmdexec.Executor {
	return &fakeExec{dir: f.dir, env: append(append([]string(nil), f.env...), k+"="+v), calls: f.calls, fail: f.fail}
}

func (f *fakeExec) ForDeployEnv(env ltdenv.EnvCode) cmdexec.Executor {
	return f.WithEnv("DEPLOY_ENV", string(env))
}

func (f *fakeExec) Dir() string   { return f.dir }
func (f *fakeExec) Env() []string { return f.env }

func (f *fakeExec) Run(ctx context.Context, name string, args ...string) error {
	return f.RunWithStdin(ctx, nil, name, args...)
}

func (f *fakeExec) RunWithStdin(_ context.Context, stdin io.Reader, name string, args ...string) error {
	c := call{Dir: f.dir, Env: f.env, Args: append([]string{name}, args...)}
	if r, ok := stdin.(*strings.Reader); ok {
		data, _ := io.ReadAll(r)
		c.Stdin = string(data)
	}
	*f.calls = append(*f.calls, c)
	return f.fail[name]
}

func (f *fakeExec) Output(ctx context.Context, name string, args ...string) (string, error) {
	return "", f.Run(ctx, name, args...)
}

func (f *fakeExec) CDK(ctx context.Context, args ...string) error {
	return f.Run(ctx, "cdk", args...)
}

func (f *fakeExec) CDKWithStdin(ctx context.Context, stdin io.Reader, args ...string) error {
	return f.RunWithStdin(ctx, stdin, "cdk", args...)
}

func testConfig(t *testing.T, code ltdenv.EnvCode) ltdenv.Config {
	t.Helper()
	cfg, err := ltdenv.NewConfig(ltdenv.Variables{DeployEnv: string(code), Account: "123456789012"})
	require.NoError(t, err)
	return cfg
}

func projectConfig() config.Config {
	return config.Config{Inner: config.Default(), ProjectDir: "/project"}
}

func TestBuildCDKArgs(t *testing.T) {
	t.Parallel()
	cfg := projectConfig()

	assert.Equal(t,
		[]string{"synth", "--all", "--output", "/project/cdk.out/dev"},
		buildCDKArgs(cfg, cdkCommandOptions{Verb: "synth", Env: ltdenv.Dev}))

	cfg.Inner.AWSProfile = "load-test"
	assert.Equal(t,
		[]string{"deploy", "--all", "--output", "/project/cdk.out/tst", "--profile", "load-test",
			"--require-approval", "never"},
		buildCDKArgs(cfg, cdkCommandOptions{Verb: "deploy", Env: ltdenv.Tst, RequireApproval: "never"}))

	assert.Equal(t,
		[]string{"destroy", "--all", "--output", "/project/cdk.out/prd", "--profile", "load-test", "--force"},
		buildCDKArgs(cfg, cdkCommandOptions{Verb: "destroy", Env: ltdenv.Prd, Force: true}))
}

func TestDoCDKSetsDeployEnv(t *testing.T) {
	t.Parallel()
	exec := newFakeExec()

	err := doCDK(context.Background(), zap.NewNop(), exec, projectConfig(), cdkCommandOptions{
		Verb: "diff", Env: ltdenv.Dev, Output: io.Discard,
	})
	require.NoError(t, err)
	require.Len(t, *exec.calls, 1)
	assert.Equal(t, []string{"DEPLOY_ENV=dev"}, (*exec.calls)[0].Env)
	assert.Equal(t, "cdk", (*exec.calls)[0].Args[0])
	assert.Equal(t, "diff", (*exec.calls)[0].Args[1])
}

func TestDoCDKDestroyPrd(t *testing.T) {
	t.Parallel()

	confirm := func(answer bool) (confirmFunc, *int) {
		asked := 0
		return func(string, string) (bool, error) { asked++; return answer, nil }, &asked
	}

	t.Run("declined", func(t *testing.T) {
		t.Parallel()
		exec := newFakeExec()
		fn, asked := confirm(false)

		err := doCDK(context.Background(), zap.NewNop(), exec, projectConfig(), cdkCommandOptions{
			Verb: "destroy", Env: ltdenv.Prd, Confirm: fn, Output: io.Discard,
		})
		require.ErrorContains(t, err, "aborted")
		assert.Equal(t, 1, *asked)
		assert.Empty(t, *exec.calls)
	})

	t.Run("confirmed", func(t *testing.T) {
		t.Parallel()
		exec := newFakeExec()
		fn, _ := confirm(true)

		err := doCDK(context.Background(), zap.NewNop(), exec, projectConfig(), cdkCommandOptions{
			Verb: "destroy", Env: ltdenv.Prd, Confirm: fn, Output: io.Discard,
		})
		require.NoError(t, err)
		require.Len(t, *exec.calls, 1)
		assert.Contains(t, (*exec.calls)[0].Args, "--force")
	})

	t.Run("forced", func(t *testing.T) {
		t.Parallel()
		exec := newFakeExec()
		fn, asked := confirm(false)

		err := doCDK(context.Background(), zap.NewNop(), exec, projectConfig(), cdkCommandOptions{
			Verb: "destroy", Env: ltdenv.Prd, Force: true, Confirm: fn, Output: io.Discard,
		})
		require.NoError(t, err)
		assert.Zero(t, *asked)
		assert.Len(t, *exec.calls, 1)
	})

	t.Run("other environments do not ask", func(t *testing.T) {
		t.Parallel()
		exec := newFakeExec()
		fn, asked := confirm(false)

		err := doCDK(context.Background(), zap.NewNop(), exec, projectConfig(), cdkCommandOptions{
			Verb: "destroy", Env: ltdenv.Dev, Confirm: fn, Output: io.Discard,
		})
		require.NoError(t, err)
		assert.Zero(t, *asked)
		assert.NotContains(t, (*exec.calls)[0].Args, "--force")
	})
}

func TestDoPlan(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, ltdenv.Dev)

	t.Run("yaml in deployment order", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, doPlan(cfg, planOptions{Format: "yaml", Output: &buf}))

		var docs []struct {
			StackName string         `yaml:"StackName"`
			Template  map[string]any `yaml:"Template"`
		}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &docs))
		require.Len(t, docs, 5)
		assert.Equal(t, "load-test-demo-vpc-dev", docs[0].StackName)
		assert.Equal(t, "load-test-demo-ci-dev", docs[4].StackName)
	})

	t.Run("json single stack", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, doPlan(cfg, planOptions{Format: "json", Stack: "load-test-demo-elb-dev", Output: &buf}))

		var docs []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &docs))
		require.Len(t, docs, 1)
		assert.Contains(t, buf.String(), "AWS::ElasticLoadBalancingV2::LoadBalancer")
	})

	t.Run("unknown stack", func(t *testing.T) {
		t.Parallel()
		err := doPlan(cfg, planOptions{Format: "yaml", Stack: "load-test-demo-elb-prd", Output: io.Discard})
		require.ErrorContains(t, err, "not part of the dev plan")
	})
}

func TestDoEnv(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, doEnv(testConfig(t, ltdenv.Prd), &buf))

	out := buf.String()
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "load-test-demo-app-prd")
	assert.Contains(t, out, "repo:penysho/load-test-demo:ref:refs/heads/main")
	assert.Contains(t, out, "disabled")
}

type fakeCFN struct {
	cloudformationiface.CloudFormationAPI
	exports []*cloudformation.Export
	stacks  map[string][]*cloudformation.Output
}

func (f *fakeCFN) ListExportsPagesWithContext(
	_ aws.Context, _ *cloudformation.ListExportsInput,
	fn func(*cloudformation.ListExportsOutput, bool) bool, _ ...request.Option,
) error {
	half := len(f.exports) / 2
	if fn(&cloudformation.ListExportsOutput{Exports: f.exports[:half]}, false) {
		fn(&cloudformation.ListExportsOutput{Exports: f.exports[half:]}, true)
	}
	return nil
}

func (f *fakeCFN) DescribeStacksWithContext(
	_ aws.Context, in *cloudformation.DescribeStacksInput, _ ...request.Option,
) (*cloudformation.DescribeStacksOutput, error) {
	outputs, ok := f.stacks[aws.StringValue(in.StackName)]
	if !ok {
		return &cloudformation.DescribeStacksOutput{}, nil
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []*cloudformation.Stack{{
		StackName: in.StackName,
		Outputs:   outputs,
	}}}, nil
}

func export(name string) *cloudformation.Export {
	return &cloudformation.Export{Name: aws.String(name), Value: aws.String(name + "-value")}
}

func TestDoPreflight(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, ltdenv.Tst)

	t.Run("all present", func(t *testing.T) {
		t.Parallel()
		api := &fakeCFN{exports: []*cloudformation.Export{
			export("shared-vpc-tst-Vpc"),
			export("shared-vpc-tst-PublicSubnet1"),
			export("shared-vpc-tst-PublicSubnet2"),
			export("unrelated"),
		}}

		var buf bytes.Buffer
		require.NoError(t, doPreflight(context.Background(), zap.NewNop(), cfg, api, &buf))
		assert.Equal(t, 3, strings.Count(buf.String(), "ok "))
	})

	t.Run("missing export", func(t *testing.T) {
		t.Parallel()
		api := &fakeCFN{exports: []*cloudformation.Export{export("shared-vpc-tst-Vpc")}}

		var buf bytes.Buffer
		err := doPreflight(context.Background(), zap.NewNop(), cfg, api, &buf)
		require.ErrorContains(t, err, "2 of 3 imported exports are missing")
		assert.Contains(t, buf.String(), "missing  shared-vpc-tst-PublicSubnet2")
	})
}

type fakeECR struct {
	ecriface.ECRAPI
}

func (fakeECR) GetAuthorizationTokenWithContext(
	aws.Context, *ecr.GetAuthorizationTokenInput, ...request.Option,
) (*ecr.GetAuthorizationTokenOutput, error) {
	token := base64.StdEncoding.EncodeToString([]byte("AWS:secret-password"))
	return &ecr.GetAuthorizationTokenOutput{AuthorizationData: []*ecr.AuthorizationData{{
		AuthorizationToken: aws.String(token),
		ProxyEndpoint:      aws.String("https://123456789012.dkr.ecr.ap-northeast-1.amazonaws.com"),
	}}}, nil
}

func TestDoBackendBuildAndPush(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, ".dockerignore", "*\n!backend\n")
	writeTestFile(t, dir, "backend/Dockerfile", "FROM golang")
	writeTestFile(t, dir, "backend/cmd/app/main.go", "package main")

	icfg := testConfig(t, ltdenv.Dev)
	repo := "123456789012.dkr.ecr.ap-northeast-1.amazonaws.com/load-test-demo-dev"
	cfn := &fakeCFN{stacks: map[string][]*cloudformation.Output{
		"load-test-demo-app-dev": {{OutputKey: aws.String("RepositoryUri"), OutputValue: aws.String(repo)}},
	}}

	exec := newFakeExec()
	cfg := config.Config{Inner: config.Default(), ProjectDir: dir}
	err := doBackendBuildAndPush(context.Background(), zap.NewNop(), exec, cfg, backendBuildAndPushOptions{
		Env:       icfg,
		Platform:  "linux/amd64",
		StackName: icfg.StackName(ltdenv.KindApplication),
		CFN:       cfn,
		ECR:       fakeECR{},
		Output:    io.Discard,
		ErrOut:    io.Discard,
	})
	require.NoError(t, err)

	calls := *exec.calls
	require.Len(t, calls, 4)
	assert.Equal(t, []string{"docker", "login", "--username", "AWS", "--password-stdin",
		"123456789012.dkr.ecr.ap-northeast-1.amazonaws.com"}, calls[0].Args)
	assert.Equal(t, "secret-password", calls[0].Stdin)
	assert.Equal(t, "build", calls[1].Args[1])
	assert.Contains(t, calls[1].Args, repo+":latest")
	assert.Equal(t, []string{"docker", "push", repo + ":latest"}, calls[3].Args)
	assert.True(t, strings.HasPrefix(calls[2].Args[2], repo+":"))
	assert.Len(t, strings.TrimPrefix(calls[2].Args[2], repo+":"), 12)
}

func TestDoBackendBuildAndPushWithoutStack(t *testing.T) {
	t.Parallel()
	icfg := testConfig(t, ltdenv.Dev)

	err := doBackendBuildAndPush(context.Background(), zap.NewNop(), newFakeExec(), projectConfig(),
		backendBuildAndPushOptions{
			Env:       icfg,
			StackName: icfg.StackName(ltdenv.KindApplication),
			CFN:       &fakeCFN{},
			ECR:       fakeECR{},
		})
	require.ErrorContains(t, err, "load-test-demo-app-dev not found")
}

func TestDoInit(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "project")

	require.NoError(t, doInit(context.Background(), InitOptions{Dir: dir, Output: io.Discard}))

	cfg, projectDir, err := config.NewFinder(config.NewLoader()).Find(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, projectDir)
	assert.Equal(t, config.Default(), cfg)

	err = doInit(context.Background(), InitOptions{Dir: dir, Output: io.Discard})
	require.ErrorContains(t, err, "already exists")

	require.NoError(t, doInit(context.Background(), InitOptions{Dir: dir, Force: true, Output: io.Discard}))
}

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
