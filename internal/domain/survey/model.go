package survey

import (
	"context"
	"io"
	"time"

	"github.com/yanqian/stop-survey/internal/domain/amenity"
	"github.com/yanqian/stop-survey/internal/domain/frame"
)

// Status is the freshness label derived from a stop's last survey time.
type Status string

const (
	StatusRecent      Status = "recent"
	StatusNeedsUpdate Status = "needs-update"
	StatusNoData      Status = "no-data"
)

const (
	// UnprovisionedCamera is the placeholder left in stop configs before a camera is assigned.
	UnprovisionedCamera = "YOUR_CAMERA_UUID"
	defaultDirection    = "Outbound"
	maxRecentActivity   = 7
	activityTypeSurvey  = "survey"
)

// StopsFile is the on-disk stop configuration document.
type StopsFile struct {
	Stops []StopConfig `json:"stops"`
}

// StopConfig describes one stop to survey.
type StopConfig struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Direction   string  `json:"direction"`
	CameraUUID  string  `json:"cameraUuid"`
	TimestampMs *int64  `json:"timestampMs,omitempty"`
}

// StopRecord is the per-stop output of a run.
type StopRecord struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Lat          float64     `json:"lat"`
	Lon          float64     `json:"lon"`
	Direction    string      `json:"direction"`
	LastSurveyed string      `json:"lastSurveyed"`
	Status       Status      `json:"status"`
	Amenities    amenity.Map `json:"amenities"`
	ImageURL     string      `json:"imageUrl"`
}

// ActivityEntry summarizes one successful stop survey.
type ActivityEntry struct {
	ID          string `json:"id"`
	StopID      string `json:"stopId"`
	StopName    string `json:"stopName"`
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// RunPayload is the aggregate document written at the end of a run.
type RunPayload struct {
	Stops            []StopRecord    `json:"stops"`
	RouteCoordinates [][2]float64    `json:"routeCoordinates"`
	RecentActivity   []ActivityEntry `json:"recentActivity"`
}

// RunOptions overrides Config for a single run. Zero values keep the configured defaults.
type RunOptions struct {
	StopsConfigPath string
	Quality         frame.Quality
	InterCallDelay  *time.Duration
	OutputPath      string
}

// Config holds the run defaults.
type Config struct {
	StopsConfigPath string
	OutputDir       string
	OutputPath      string
	Quality         frame.Quality
	InterCallDelay  time.Duration
	// Location interprets naive timestamps during status computation.
	Location *time.Location
}

// RunResult is handed to publishers after the payload is written.
type RunResult struct {
	RunID       string
	OutputPath  string
	Payload     []byte
	Stops       int
	Surveyed    int
	CompletedAt time.Time
}

// Publisher mirrors a finished run to an external system.
type Publisher interface {
	Publish(ctx context.Context, result RunResult) error
}

// ImageStore keeps the latest published frame of each stop.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// ImageKey is the storage key backing a stop's imageUrl.
func ImageKey(stopID string) string {
	return "stops/" + stopID + ".jpg"
}

// ImageURL is the stable public path of a stop's latest frame.
func ImageURL(stopID string) string {
	return "/" + ImageKey(stopID)
}
