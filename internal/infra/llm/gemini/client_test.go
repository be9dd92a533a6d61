package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateContentSuccess(t *testing.T) {
	var got GenerateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"bench\":{}}"}]}}],"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":3,"totalTokenCount":15}}`))
	}))
	defer srv.Close()

	client := NewClient("secret", srv.URL, time.Second)
	resp, err := client.GenerateContent(context.Background(), GenerateContentRequest{
		Contents: []Content{{
			Role: "user",
			Parts: []Part{
				{Text: "describe"},
				{InlineData: &InlineData{MimeType: "image/jpeg", Data: "aGVsbG8="}},
			},
		}},
		GenerationConfig: GenerationConfig{Temperature: 0, ResponseMimeType: "application/json"},
	})
	require.NoError(t, err)

	text, ok := resp.FirstText()
	require.True(t, ok)
	require.Equal(t, `{"bench":{}}`, text)
	require.NotNil(t, resp.UsageMetadata)
	require.Equal(t, 15, resp.UsageMetadata.TotalTokenCount)

	require.Len(t, got.Contents, 1)
	require.Equal(t, "user", got.Contents[0].Role)
	require.Equal(t, "describe", got.Contents[0].Parts[0].Text)
	require.Equal(t, "image/jpeg", got.Contents[0].Parts[1].InlineData.MimeType)
	require.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
}

func TestGenerateContentTemperatureIsAlwaysSent(t *testing.T) {
	payload, err := json.Marshal(GenerateContentRequest{GenerationConfig: GenerationConfig{Temperature: 0}})
	require.NoError(t, err)
	require.Contains(t, string(payload), `"temperature":0`)
}

func TestGenerateContentMissingKeySkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := NewClient("  ", srv.URL, time.Second)
	_, err := client.GenerateContent(context.Background(), GenerateContentRequest{})
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestGenerateContentStatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError} {
		status := status
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
		}))

		client := NewClient("secret", srv.URL, time.Second)
		_, err := client.GenerateContent(context.Background(), GenerateContentRequest{})
		srv.Close()

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		require.Equal(t, status, statusErr.StatusCode)
		require.Equal(t, status == http.StatusTooManyRequests, statusErr.RateLimited())
	}
}

func TestFirstTextMissingPath(t *testing.T) {
	_, ok := GenerateContentResponse{}.FirstText()
	require.False(t, ok)

	_, ok = GenerateContentResponse{Candidates: []Candidate{{Content: Content{}}}}.FirstText()
	require.False(t, ok)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("k", "", 0)
	require.Equal(t, DefaultURL, client.url)
	require.Equal(t, defaultTimeout, client.httpClient.Timeout)
}
