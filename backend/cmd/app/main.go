// Command app is the posts API that the load tests exercise.
package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/backend/internal/db"
	"github.com/penysho/load-test-demo/backend/internal/posts"
	"go.uber.org/zap"
)

type settings struct {
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	Host            string        `env:"HOST"             envDefault:"0.0.0.0"`
	Port            string        `env:"PORT"             envDefault:"8011"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func main() {
	logs := zap.Must(zap.NewProduction())
	defer logs.Sync() //nolint:errcheck

	if err := run(logs); err != nil {
		logs.Fatal("app failed", zap.Error(err))
	}
}

func run(logs *zap.Logger) error {
	cfg, err := env.ParseAs[settings]()
	if err != nil {
		return errors.Wrap(err, "parse settings")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, logs); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           posts.NewHandler(posts.NewPgStore(pool), logs),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logs.Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "graceful shutdown")
		}
		logs.Info("stopped")
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	}
}
