package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/stop-survey/internal/domain/survey"
	"github.com/yanqian/stop-survey/internal/infra/config"
)

// App exposes the two ways the survey runs: a one-shot CLI run and the dashboard server.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	survey survey.Service
	server *http.Server
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, surveySvc survey.Service, server *http.Server) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), survey: surveySvc, server: server}
}

// RunSurvey performs one survey run and returns the written output path.
func (a *App) RunSurvey(ctx context.Context, opts survey.RunOptions) (string, error) {
	path, err := a.survey.Run(ctx, opts)
	if err != nil {
		a.logger.Error("survey run failed", "error", err)
		return "", err
	}
	return path, nil
}

// Serve starts the dashboard HTTP server and blocks until shutdown.
func (a *App) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
