package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/stop-survey/internal/domain/frame"
	"github.com/yanqian/stop-survey/internal/domain/survey"
	"github.com/yanqian/stop-survey/internal/infra/camera/rhombus"
	"github.com/yanqian/stop-survey/internal/infra/config"
	"github.com/yanqian/stop-survey/internal/infra/llm/gemini"
	"github.com/yanqian/stop-survey/internal/infra/publish"
	"github.com/yanqian/stop-survey/internal/infra/storage"
	httpiface "github.com/yanqian/stop-survey/internal/interface/http"
)

func provideLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Survey.Location()
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideRhombusClient(cfg *config.Config) *rhombus.Client {
	return rhombus.NewClient(cfg.Camera.APIKey, cfg.Camera.FrameURL, cfg.Camera.Timeout)
}

func provideGeminiClient(cfg *config.Config) *gemini.Client {
	return gemini.NewClient(cfg.Vision.APIKey, cfg.Vision.URL, cfg.Vision.Timeout)
}

func provideFrameConfig(cfg *config.Config, loc *time.Location) frame.Config {
	return frame.Config{
		OutputDir: cfg.Survey.OutputDir,
		Location:  loc,
	}
}

func provideSurveyConfig(cfg *config.Config, loc *time.Location) survey.Config {
	return survey.Config{
		StopsConfigPath: cfg.Survey.StopsConfigPath,
		OutputDir:       cfg.Survey.OutputDir,
		OutputPath:      cfg.Survey.OutputPath,
		Quality:         frame.Quality(cfg.Survey.Quality),
		InterCallDelay:  cfg.Survey.InterCallDelay,
		Location:        loc,
	}
}

func provideImageStore(cfg *config.Config, logger *slog.Logger) (survey.ImageStore, error) {
	switch cfg.Storage.Driver {
	case "r2":
		logger.Info("stop images stored in r2", "bucket", cfg.Storage.R2.Bucket)
		return storage.NewR2Storage(storage.R2Config{
			Endpoint:  cfg.Storage.R2.Endpoint,
			AccessKey: cfg.Storage.R2.AccessKey,
			SecretKey: cfg.Storage.R2.SecretKey,
			Bucket:    cfg.Storage.R2.Bucket,
			Region:    cfg.Storage.R2.Region,
		}, logger)
	case "memory":
		logger.Warn("stop images kept in memory and lost on exit")
		return storage.NewMemoryStorage(), nil
	default:
		return storage.NewLocalStorage(cfg.Storage.LocalDir)
	}
}

// providePublishers connects the optional publishers. A publisher that cannot
// connect is skipped so a broker outage never blocks a survey.
func providePublishers(cfg *config.Config, logger *slog.Logger) ([]survey.Publisher, func()) {
	var (
		publishers []survey.Publisher
		closers    []func()
	)

	if cfg.Publish.Valkey.Enabled {
		if client, err := connectValkey(cfg.Publish.Valkey.Addr); err != nil {
			logger.Error("valkey publisher disabled", "addr", cfg.Publish.Valkey.Addr, "error", err)
		} else {
			logger.Info("valkey publisher enabled", "addr", cfg.Publish.Valkey.Addr, "key", cfg.Publish.Valkey.Key)
			publishers = append(publishers, publish.NewValkeyPublisher(client, cfg.Publish.Valkey.Key))
			closers = append(closers, client.Close)
		}
	}

	if cfg.Publish.NATS.Enabled {
		if nc, err := publish.ConnectNATS(cfg.Publish.NATS.URL); err != nil {
			logger.Error("nats publisher disabled", "url", cfg.Publish.NATS.URL, "error", err)
		} else {
			logger.Info("nats publisher enabled", "url", cfg.Publish.NATS.URL, "subject", cfg.Publish.NATS.Subject)
			publishers = append(publishers, publish.NewNATSPublisher(nc, cfg.Publish.NATS.Subject))
			closers = append(closers, func() { _ = nc.Drain() })
		}
	}

	return publishers, func() {
		for _, fn := range closers {
			fn()
		}
	}
}

func connectValkey(addr string) (valkey.Client, error) {
	opt, err := publish.ValkeyOptions(addr)
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func provideHandler(cfg *config.Config, surveySvc survey.Service, images survey.ImageStore, logger *slog.Logger) *httpiface.Handler {
	return httpiface.NewHandler(surveySvc, images, cfg.Survey.ResolvedOutputPath(), logger)
}
