package cmdexec_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/penysho/load-test-demo/cmd/ltd/internal/cmdexec"
	"github.com/penysho/load-test-demo/cmd/ltd/internal/config"
	"github.com/penysho/load-test-demo/ltdenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("without profile", func(t *testing.T) {
		t.Parallel()
		exec := cmdexec.New(config.Config{ProjectDir: "/test/project"}, zap.NewNop())
		assert.Equal(t, "/test/project", exec.Dir())
		assert.Empty(t, exec.Env())
	})

	t.Run("exports profile", func(t *testing.T) {
		t.Parallel()
		cfg := config.Config{ProjectDir: "/p", Inner: config.InnerConfig{AWSProfile: "load-test"}}
		assert.Equal(t, []string{"AWS_PROFILE=load-test"}, cmdexec.New(cfg, zap.NewNop()).Env())
	})
}

func TestDerivedExecutorsDoNotShareState(t *testing.T) {
	t.Parallel()
	base := cmdexec.NewWithDir("/root", zap.NewNop())

	prd := base.ForDeployEnv(ltdenv.Prd)
	dev := base.ForDeployEnv(ltdenv.Dev).InSubdir("backend")

	assert.Empty(t, base.Env())
	assert.Equal(t, []string{"DEPLOY_ENV=prd"}, prd.Env())
	assert.Equal(t, []string{"DEPLOY_ENV=dev"}, dev.Env())
	assert.Equal(t, filepath.Join("/root", "backend"), dev.Dir())
	assert.Equal(t, "/root", prd.Dir())
}

func TestRunAndOutput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0o644))

	var stdout bytes.Buffer
	exec := cmdexec.NewWithDir(dir, zap.NewNop()).
		WithOutput(&stdout, &bytes.Buffer{}).
		WithEnv("LTD_TEST_VALUE", "hello")

	require.NoError(t, exec.Run(context.Background(), "ls"))
	assert.Contains(t, stdout.String(), "marker.txt")

	out, err := exec.Output(context.Background(), "sh", "-c", "echo $LTD_TEST_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	err = exec.Run(context.Background(), "sh", "-c", "exit 3")
	require.ErrorContains(t, err, "sh failed")
}
