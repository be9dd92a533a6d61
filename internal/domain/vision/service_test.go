package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/stop-survey/internal/domain/amenity"
	"github.com/yanqian/stop-survey/internal/infra/llm/gemini"
	"github.com/yanqian/stop-survey/pkg/metrics"
)

func TestSurveyImageSuccess(t *testing.T) {
	path := writeImage(t, []byte("jpeg-bytes"))
	client := &stubModelClient{resp: textResponse("```json\n{\"bench\":{\"detected\":true,\"confidence\":0.9},\"shelter\":{\"detected\":false,\"confidence\":0.2}}\n```")}

	svc := NewService(client, nil, newTestLogger())
	got := svc.SurveyImage(context.Background(), path)

	require.Equal(t, amenity.Observation{Detected: true, Confidence: 0.9}, got[amenity.Bench])
	require.Equal(t, amenity.Observation{Detected: false, Confidence: 0.2}, got[amenity.Shelter])
	require.Equal(t, amenity.Observation{}, got[amenity.Lighting])
	require.Len(t, got, 6)

	require.Equal(t, 1, client.calls)
	req := client.lastRequest
	require.Len(t, req.Contents, 1)
	require.Equal(t, "user", req.Contents[0].Role)
	require.Len(t, req.Contents[0].Parts, 2)
	require.Equal(t, Prompt, req.Contents[0].Parts[0].Text)
	require.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MimeType)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), req.Contents[0].Parts[1].InlineData.Data)
	require.Zero(t, req.GenerationConfig.Temperature)
	require.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
}

func TestSurveyImageFailureModesYieldDefault(t *testing.T) {
	cases := []struct {
		name   string
		client *stubModelClient
	}{
		{name: "missing credential", client: &stubModelClient{err: gemini.ErrMissingAPIKey}},
		{name: "network exception", client: &stubModelClient{err: errors.New("dial tcp: connection refused")}},
		{name: "rate limited", client: &stubModelClient{err: &gemini.StatusError{StatusCode: http.StatusTooManyRequests}}},
		{name: "server error", client: &stubModelClient{err: &gemini.StatusError{StatusCode: http.StatusInternalServerError, Body: "boom"}}},
		{name: "malformed envelope", client: &stubModelClient{resp: gemini.GenerateContentResponse{}}},
		{name: "non json text", client: &stubModelClient{resp: textResponse("I cannot see a bus stop here.")}},
		{name: "broken json", client: &stubModelClient{resp: textResponse(`{"bench": {"detected": tru}}`)}},
		{name: "wrong keys", client: &stubModelClient{resp: textResponse(`{"Bench":{"detected":true,"confidence":1},"fountain":{"detected":true}}`)}},
		{name: "json array", client: &stubModelClient{resp: textResponse(`[{"bench":true}]`)}},
	}

	path := writeImage(t, []byte("jpeg"))
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.client, nil, newTestLogger())
			require.NotPanics(t, func() {
				require.Equal(t, amenity.Default(), svc.SurveyImage(context.Background(), path))
			})
		})
	}
}

func TestSurveyImageMissingFileSkipsModel(t *testing.T) {
	client := &stubModelClient{resp: textResponse(`{"bench":{"detected":true,"confidence":1}}`)}
	svc := NewService(client, nil, newTestLogger())

	got := svc.SurveyImage(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	require.Equal(t, amenity.Default(), got)
	require.Zero(t, client.calls)
}

func TestSurveyImageAgainstHTTPModel(t *testing.T) {
	path := writeImage(t, []byte("jpeg"))

	t.Run("rate limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		reg := prometheus.NewRegistry()
		svc := NewService(gemini.NewClient("key", srv.URL, time.Second), metrics.NewSurveyMetrics(reg), newTestLogger())
		require.Equal(t, amenity.Default(), svc.SurveyImage(context.Background(), path))
	})

	t.Run("closed server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		svc := NewService(gemini.NewClient("key", url, time.Second), nil, newTestLogger())
		require.Equal(t, amenity.Default(), svc.SurveyImage(context.Background(), path))
	})

	t.Run("valid answer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"lighting\":{\"detected\":true,\"confidence\":0.75}}"}]}}]}`))
		}))
		defer srv.Close()

		svc := NewService(gemini.NewClient("key", srv.URL, time.Second), nil, newTestLogger())
		got := svc.SurveyImage(context.Background(), path)
		require.Equal(t, amenity.Observation{Detected: true, Confidence: 0.75}, got[amenity.Lighting])
	})
}

type stubModelClient struct {
	resp        gemini.GenerateContentResponse
	err         error
	calls       int
	lastRequest gemini.GenerateContentRequest
}

func (s *stubModelClient) GenerateContent(ctx context.Context, req gemini.GenerateContentRequest) (gemini.GenerateContentResponse, error) {
	s.calls++
	s.lastRequest = req
	if s.err != nil {
		return gemini.GenerateContentResponse{}, s.err
	}
	return s.resp, nil
}

func textResponse(text string) gemini.GenerateContentResponse {
	return gemini.GenerateContentResponse{
		Candidates: []gemini.Candidate{{
			Content: gemini.Content{Role: "model", Parts: []gemini.Part{{Text: text}}},
		}},
	}
}

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stop.jpg")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
