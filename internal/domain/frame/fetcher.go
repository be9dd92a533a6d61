package frame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yanqian/stop-survey/pkg/metrics"
)

// defaultLookback keeps requested timestamps safely in the past; the camera
// service rejects requests for frames that do not exist yet.
const defaultLookback = 5 * time.Minute

// Fetcher retrieves a still frame for a camera and saves it to disk.
type Fetcher interface {
	// GetFrame returns the saved file path, or false when no frame could be obtained.
	GetFrame(ctx context.Context, cameraID string, timestampMs *int64, quality Quality) (string, bool)
}

// Config controls where frames are written.
type Config struct {
	OutputDir string
	Subdir    string
	Location  *time.Location
}

type fetcher struct {
	cfg     Config
	client  CameraClient
	metrics *metrics.SurveyMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewFetcher wires the frame fetcher.
func NewFetcher(cfg Config, client CameraClient, m *metrics.SurveyMetrics, logger *slog.Logger) Fetcher {
	if cfg.Subdir == "" {
		cfg.Subdir = "frames"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &fetcher{
		cfg:     cfg,
		client:  client,
		metrics: m,
		logger:  logger.With("component", "frame.fetcher"),
		now:     time.Now,
	}
}

func (f *fetcher) GetFrame(ctx context.Context, cameraID string, timestampMs *int64, quality Quality) (string, bool) {
	ts := f.now().Add(-defaultLookback).UnixMilli()
	if timestampMs != nil {
		ts = *timestampMs
	}

	req := baseRequest()
	req.CameraUUID = cameraID
	req.TimestampMs = ts
	if settings, ok := Lookup(quality); ok {
		req.DownscaleFactor = settings.DownscaleFactor
		req.JPGQuality = settings.JPGQuality
	}

	uri, err := f.client.FrameURI(ctx, req)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			f.logger.Info("camera api key not set, skipping frame", "camera", cameraID)
			f.metrics.ObserveFrame("no_credential")
			return "", false
		}
		f.logger.Warn("frame uri request failed", "camera", cameraID, "error", err)
		f.metrics.ObserveFrame("uri_error")
		return "", false
	}

	data, err := f.client.Download(ctx, uri)
	if err != nil {
		f.logger.Warn("frame download failed", "camera", cameraID, "error", err)
		f.metrics.ObserveFrame("download_error")
		return "", false
	}

	path, err := f.save(ts, data)
	if err != nil {
		f.logger.Warn("frame save failed", "camera", cameraID, "error", err)
		f.metrics.ObserveFrame("save_error")
		return "", false
	}

	f.metrics.ObserveFrame("ok")
	f.logger.Debug("frame saved", "camera", cameraID, "path", path, "bytes", len(data))
	return path, true
}

func (f *fetcher) save(timestampMs int64, data []byte) (string, error) {
	dir := filepath.Join(f.cfg.OutputDir, f.cfg.Subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create frame dir: %w", err)
	}
	path := filepath.Join(dir, FileName(timestampMs, f.cfg.Location))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write frame: %w", err)
	}
	return path, nil
}

// FileName renders the stop_YYYYMMDD_HHMMSS.jpg name for a frame timestamp.
func FileName(timestampMs int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return "stop_" + time.UnixMilli(timestampMs).In(loc).Format("20060102_150405") + ".jpg"
}
