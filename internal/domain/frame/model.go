package frame

import (
	"context"
	"errors"
)

// ErrNoCredential marks camera calls skipped because no credential is configured.
var ErrNoCredential = errors.New("camera credential not configured")

// Quality selects the downscale/JPEG trade-off of a fetched frame.
type Quality string

const (
	QualityHigh    Quality = "high"
	QualityMedium  Quality = "medium"
	QualityLow     Quality = "low"
	QualityVeryLow Quality = "very_low"

	// DefaultQuality is used when callers do not choose one.
	DefaultQuality = QualityMedium
)

// Settings is the downscale factor and JPEG quality pair for a Quality.
type Settings struct {
	DownscaleFactor int
	JPGQuality      int
}

var qualityOptions = map[Quality]Settings{
	QualityHigh:    {DownscaleFactor: 1, JPGQuality: 90},
	QualityMedium:  {DownscaleFactor: 1, JPGQuality: 75},
	QualityLow:     {DownscaleFactor: 3, JPGQuality: 60},
	QualityVeryLow: {DownscaleFactor: 4, JPGQuality: 40},
}

// Lookup returns the settings for q.
func Lookup(q Quality) (Settings, bool) {
	s, ok := qualityOptions[q]
	return s, ok
}

// ParseQuality validates a user supplied quality name.
func ParseQuality(value string) (Quality, bool) {
	q := Quality(value)
	_, ok := qualityOptions[q]
	return q, ok
}

// FrameRequest is the body of a frame-location request.
type FrameRequest struct {
	CameraUUID          string `json:"cameraUuid"`
	TimestampMs         int64  `json:"timestampMs"`
	PermyriadCropX      int    `json:"permyriadCropX"`
	PermyriadCropY      int    `json:"permyriadCropY"`
	PermyriadCropWidth  int    `json:"permyriadCropWidth"`
	PermyriadCropHeight int    `json:"permyriadCropHeight"`
	DownscaleFactor     int    `json:"downscaleFactor"`
	JPGQuality          int    `json:"jpgQuality"`
}

// baseRequest is the full-frame crop at default quality.
func baseRequest() FrameRequest {
	q := qualityOptions[DefaultQuality]
	return FrameRequest{
		PermyriadCropX:      0,
		PermyriadCropY:      0,
		PermyriadCropWidth:  10000,
		PermyriadCropHeight: 10000,
		DownscaleFactor:     q.DownscaleFactor,
		JPGQuality:          q.JPGQuality,
	}
}

// CameraClient is the camera service transport.
type CameraClient interface {
	FrameURI(ctx context.Context, req FrameRequest) (string, error)
	Download(ctx context.Context, uri string) ([]byte, error)
}
