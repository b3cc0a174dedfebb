package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const goodMigration = "-- +goose Up\nCREATE TABLE t (id int);\n-- +goose Down\nDROP TABLE t;\n"

func TestGoTasksTargetModulePackages(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		run  goTaskFunc
		want [][]string
	}{
		{
			name: "tests",
			run:  doCheckTests,
			want: [][]string{{"go", "test", "-count=1", "./ltd...", "./cmd/...", "./backend/..."}},
		},
		{
			name: "compiles",
			run:  doCheckCompiles,
			want: [][]string{
				{"go", "build", "./ltd...", "./cmd/...", "./backend/..."},
				{"go", "test", "-count=1", "-run", "^$", "./ltd...", "./cmd/...", "./backend/..."},
			},
		},
		{
			name: "fmt",
			run:  doDevFmt,
			want: [][]string{{"golangci-lint", "fmt", "./ltd...", "./cmd/...", "./backend/..."}},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exec := newFakeExec()
			require.NoError(t, tt.run(context.Background(), exec))

			require.Len(t, *exec.calls, len(tt.want))
			for i, c := range *exec.calls {
				assert.Equal(t, tt.want[i], c.Args)
				assert.Equal(t, "/project", c.Dir)
			}
		})
	}
}

func TestDoCheckCompilesStopsOnBuildFailure(t *testing.T) {
	t.Parallel()
	exec := newFakeExec()
	exec.fail["go"] = errors.New("go failed")

	require.ErrorContains(t, doCheckCompiles(context.Background(), exec), "go failed")
	assert.Len(t, *exec.calls, 1)
}

func TestDoCheckLint(t *testing.T) {
	t.Parallel()

	t.Run("lints then checks migrations", func(t *testing.T) {
		t.Parallel()
		exec := newFakeExec()
		exec.dir = t.TempDir()
		writeTestFile(t, exec.dir, "backend/internal/db/migrations/00001_create_t.sql", goodMigration)

		require.NoError(t, doCheckLint(context.Background(), exec))
		require.Len(t, *exec.calls, 1)
		assert.Equal(t, []string{"golangci-lint", "run", "./ltd...", "./cmd/...", "./backend/..."}, (*exec.calls)[0].Args)
	})

	t.Run("linter failure skips migrations", func(t *testing.T) {
		t.Parallel()
		exec := newFakeExec()
		exec.dir = t.TempDir()
		exec.fail["golangci-lint"] = errors.New("golangci-lint failed")

		require.ErrorContains(t, doCheckLint(context.Background(), exec), "golangci-lint failed")
	})

	t.Run("missing migrations dir", func(t *testing.T) {
		t.Parallel()
		exec := newFakeExec()
		exec.dir = t.TempDir()

		require.ErrorContains(t, doCheckLint(context.Background(), exec), "migrations")
	})
}

func TestLintMigrations(t *testing.T) {
	t.Parallel()

	t.Run("backend migrations pass", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, lintMigrations(filepath.Join("..", "..", migrationsDir)))
	})

	for _, tt := range []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:  "valid sequence",
			files: map[string]string{"00001_a.sql": goodMigration, "00002_b.sql": goodMigration, "README.md": "x"},
		},
		{
			name:    "bad name",
			files:   map[string]string{"create.sql": goodMigration},
			wantErr: "create.sql: name must be",
		},
		{
			name:    "duplicate version",
			files:   map[string]string{"00001_a.sql": goodMigration, "00001_b.sql": goodMigration},
			wantErr: "version 00001 already used by 00001_a.sql",
		},
		{
			name:    "missing down",
			files:   map[string]string{"00001_a.sql": "-- +goose Up\nCREATE TABLE t (id int);\n"},
			wantErr: `missing "-- +goose Down"`,
		},
		{
			name:    "no migrations",
			files:   map[string]string{"README.md": "x"},
			wantErr: "no migrations",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			for name, content := range tt.files {
				writeTestFile(t, dir, name, content)
			}

			err := lintMigrations(dir)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDoCheckPlans(t *testing.T) {
	t.Parallel()
	require.NoError(t, doCheckPlans(zap.NewNop(), ""))
	require.ErrorContains(t, doCheckPlans(zap.NewNop(), "us-east-1"), "dev")
}
