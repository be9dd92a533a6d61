package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/yanqian/stop-survey/internal/domain/amenity"
	"github.com/yanqian/stop-survey/internal/infra/llm/gemini"
	"github.com/yanqian/stop-survey/pkg/metrics"
)

// Vision outcomes recorded in metrics.
const (
	outcomeOK            = "ok"
	outcomeNoCredential  = "no_credential"
	outcomeImageError    = "image_error"
	outcomeTransport     = "transport_error"
	outcomeRateLimited   = "rate_limited"
	outcomeHTTPError     = "http_error"
	outcomeBadEnvelope   = "bad_envelope"
	outcomeNoJSON        = "no_json"
	outcomeJSONMalformed = "json_malformed"
)

// Service detects amenities in a stop image.
type Service interface {
	// SurveyImage never fails; every error path yields amenity.Default().
	SurveyImage(ctx context.Context, imagePath string) amenity.Map
}

// ModelClient is the multimodal model transport.
type ModelClient interface {
	GenerateContent(ctx context.Context, req gemini.GenerateContentRequest) (gemini.GenerateContentResponse, error)
}

type service struct {
	client   ModelClient
	metrics  *metrics.SurveyMetrics
	logger   *slog.Logger
	readFile func(string) ([]byte, error)
}

// NewService wires the vision survey client.
func NewService(client ModelClient, m *metrics.SurveyMetrics, logger *slog.Logger) Service {
	return &service{
		client:   client,
		metrics:  m,
		logger:   logger.With("component", "vision.service"),
		readFile: os.ReadFile,
	}
}

func (s *service) SurveyImage(ctx context.Context, imagePath string) amenity.Map {
	data, err := s.readFile(imagePath)
	if err != nil {
		s.logger.Warn("read stop image failed", "path", imagePath, "error", err)
		return s.fallback(outcomeImageError)
	}

	resp, err := s.client.GenerateContent(ctx, buildRequest(data))
	if err != nil {
		var statusErr *gemini.StatusError
		switch {
		case errors.Is(err, gemini.ErrMissingAPIKey):
			s.logger.Info("vision api key not set, skipping survey", "path", imagePath)
			return s.fallback(outcomeNoCredential)
		case errors.As(err, &statusErr) && statusErr.RateLimited():
			s.logger.Warn("vision rate limited (429); consider increasing --sleep between calls", "path", imagePath)
			return s.fallback(outcomeRateLimited)
		case errors.As(err, &statusErr):
			s.logger.Warn("vision api error", "status", statusErr.StatusCode, "body", statusErr.Body)
			return s.fallback(outcomeHTTPError)
		default:
			s.logger.Warn("vision request failed", "error", err)
			return s.fallback(outcomeTransport)
		}
	}
	s.recordUsage(resp.UsageMetadata)

	text, ok := resp.FirstText()
	if !ok {
		s.logger.Warn("unexpected vision response structure")
		return s.fallback(outcomeBadEnvelope)
	}

	candidate := extractJSONObject(text)
	if candidate == "" {
		s.logger.Warn("no json object in vision response")
		return s.fallback(outcomeNoJSON)
	}

	var raw any
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		s.logger.Warn("vision json parse error", "error", err)
		return s.fallback(outcomeJSONMalformed)
	}

	s.metrics.ObserveVision(outcomeOK)
	return amenity.Normalize(raw)
}

func (s *service) fallback(outcome string) amenity.Map {
	s.metrics.ObserveVision(outcome)
	return amenity.Default()
}

func (s *service) recordUsage(meta *gemini.UsageMetadata) {
	if meta == nil {
		return
	}
	usage := metrics.TokenUsage{
		PromptTokens:     meta.PromptTokenCount,
		CompletionTokens: meta.CandidatesTokenCount,
		TotalTokens:      meta.TotalTokenCount,
	}
	if usage.IsZero() {
		return
	}
	s.metrics.ObserveTokens(usage)
	s.logger.Debug("vision token usage", "prompt_tokens", usage.PromptTokens, "completion_tokens", usage.CompletionTokens, "total_tokens", usage.TotalTokens)
}

func buildRequest(image []byte) gemini.GenerateContentRequest {
	return gemini.GenerateContentRequest{
		Contents: []gemini.Content{{
			Role: "user",
			Parts: []gemini.Part{
				{Text: Prompt},
				{InlineData: &gemini.InlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: gemini.GenerationConfig{
			Temperature:      0,
			ResponseMimeType: "application/json",
		},
	}
}
