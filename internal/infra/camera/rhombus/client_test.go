package rhombus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/stop-survey/internal/domain/frame"
)

func TestFrameURIAndDownload(t *testing.T) {
	mux := http.NewServeMux()
	var got frame.FrameRequest
	mux.HandleFunc("/frame", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "secret", r.Header.Get("x-auth-apikey"))
		require.Equal(t, "api-token", r.Header.Get("x-auth-scheme"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"frameUri":"` + "http://" + r.Host + `/media/1.jpg"}`))
	})
	mux.HandleFunc("/media/1.jpg", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("x-auth-apikey"))
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient("secret", srv.URL+"/frame", time.Second)
	uri, err := client.FrameURI(context.Background(), frame.FrameRequest{CameraUUID: "cam-1", TimestampMs: 42, DownscaleFactor: 1, JPGQuality: 75})
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/media/1.jpg", uri)
	require.Equal(t, "cam-1", got.CameraUUID)
	require.Equal(t, int64(42), got.TimestampMs)

	data, err := client.Download(context.Background(), uri)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
}

func TestFrameURIErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "error string", body: `{"error":"Time travel is not supported"}`, want: "Time travel is not supported"},
		{name: "error flag", body: `{"error":true,"errorMsg":"camera offline"}`, want: "camera offline"},
		{name: "missing uri", body: `{}`, want: "missing frameUri"},
		{name: "not json", body: `<html>`, want: "decode frame response"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient("secret", srv.URL, time.Second).FrameURI(context.Background(), frame.FrameRequest{})
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestFrameURIErrorFlagFalseIsIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":false,"frameUri":"https://x/y.jpg"}`))
	}))
	defer srv.Close()

	uri, err := NewClient("secret", srv.URL, time.Second).FrameURI(context.Background(), frame.FrameRequest{})
	require.NoError(t, err)
	require.Equal(t, "https://x/y.jpg", uri)
}

func TestDownloadNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient("secret", srv.URL, time.Second).Download(context.Background(), srv.URL)
	require.ErrorContains(t, err, "status=404")
}

func TestDownloadRejectsOversizedFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	client := NewClient("secret", srv.URL, time.Second)
	client.maxFrameBytes = 64
	data, err := client.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, data, 64)

	client.maxFrameBytes = 63
	_, err = client.Download(context.Background(), srv.URL)
	require.ErrorContains(t, err, "frame exceeds 63 bytes")
}

func TestMissingKeySkipsNetwork(t *testing.T) {
	client := NewClient("", "http://127.0.0.1:1/unused", time.Second)

	_, err := client.FrameURI(context.Background(), frame.FrameRequest{})
	require.True(t, errors.Is(err, ErrMissingAPIKey))
	require.True(t, errors.Is(err, frame.ErrNoCredential))

	_, err = client.Download(context.Background(), "http://127.0.0.1:1/x.jpg")
	require.ErrorIs(t, err, frame.ErrNoCredential)
}
