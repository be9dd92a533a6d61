//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanqian/stop-survey/internal/bootstrap"
	"github.com/yanqian/stop-survey/internal/domain/frame"
	"github.com/yanqian/stop-survey/internal/domain/survey"
	"github.com/yanqian/stop-survey/internal/domain/vision"
	"github.com/yanqian/stop-survey/internal/infra/camera/rhombus"
	"github.com/yanqian/stop-survey/internal/infra/config"
	"github.com/yanqian/stop-survey/internal/infra/llm/gemini"
	httpiface "github.com/yanqian/stop-survey/internal/interface/http"
	"github.com/yanqian/stop-survey/pkg/logger"
	"github.com/yanqian/stop-survey/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideLocation,
		provideRegistry,
		wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
		wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
		metrics.NewSurveyMetrics,
		provideRhombusClient,
		provideGeminiClient,
		wire.Bind(new(frame.CameraClient), new(*rhombus.Client)),
		wire.Bind(new(vision.ModelClient), new(*gemini.Client)),
		provideFrameConfig,
		provideSurveyConfig,
		provideImageStore,
		providePublishers,
		frame.NewFetcher,
		vision.NewService,
		survey.NewService,
		provideHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
