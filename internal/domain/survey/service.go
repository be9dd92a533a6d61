package survey

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/stop-survey/internal/domain/amenity"
	"github.com/yanqian/stop-survey/internal/domain/frame"
	"github.com/yanqian/stop-survey/internal/domain/vision"
	apperrors "github.com/yanqian/stop-survey/pkg/errors"
	"github.com/yanqian/stop-survey/pkg/metrics"
	"github.com/yanqian/stop-survey/pkg/util"
)

// Service runs amenity surveys over the configured stops.
type Service interface {
	// Run surveys every stop sequentially and returns the written output path.
	Run(ctx context.Context, opts RunOptions) (string, error)
}

type service struct {
	cfg        Config
	fetcher    frame.Fetcher
	surveyor   vision.Service
	images     ImageStore
	publishers []Publisher
	metrics    *metrics.SurveyMetrics
	logger     *slog.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration)
	newRunID   func() string
}

// NewService wires the survey orchestrator. images and publishers are optional.
func NewService(cfg Config, fetcher frame.Fetcher, surveyor vision.Service, images ImageStore, publishers []Publisher, m *metrics.SurveyMetrics, logger *slog.Logger) Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &service{
		cfg:        cfg,
		fetcher:    fetcher,
		surveyor:   surveyor,
		images:     images,
		publishers: publishers,
		metrics:    m,
		logger:     logger.With("component", "survey.service"),
		now:        util.NowUTC,
		sleep:      sleepContext,
		newRunID:   func() string { return uuid.NewString() },
	}
}

func (s *service) Run(ctx context.Context, opts RunOptions) (string, error) {
	started := s.now()
	plan := s.resolve(opts)
	runID := s.newRunID()
	logger := s.logger.With("run_id", runID)

	stops, err := LoadStops(plan.stopsConfigPath)
	if err != nil {
		return "", err
	}

	runTimestamp := started.UTC().Truncate(time.Second)
	surveyTime := util.FormatSurveyTime(runTimestamp)
	logger.Info("survey run starting", "stops", len(stops), "quality", plan.quality, "sleep", plan.delay.String())

	records := make([]StopRecord, 0, len(stops))
	activity := make([]ActivityEntry, 0, len(stops))
	for i, stop := range stops {
		if ctx.Err() != nil {
			break
		}
		record, ok := s.surveyStop(ctx, logger, stop, plan, surveyTime, runTimestamp)
		records = append(records, record)
		s.metrics.ObserveStop(string(record.Status))
		if !ok {
			continue
		}
		activity = append(activity, ActivityEntry{
			ID:          fmt.Sprintf("a%d", i+1),
			StopID:      stop.ID,
			StopName:    stop.Name,
			Timestamp:   surveyTime,
			Type:        activityTypeSurvey,
			Description: fmt.Sprintf("Survey completed - %d amenities detected", amenity.CountDetected(record.Amenities)),
		})
	}

	// A cancelled run turns the remaining stops into no-data; keep the previous output instead.
	if err := ctx.Err(); err != nil {
		logger.Warn("survey run cancelled, output left unchanged", "surveyed", len(activity), "error", err)
		return "", apperrors.Wrap(apperrors.CodeCanceled, "survey run cancelled", err)
	}

	payload := RunPayload{
		Stops:            records,
		RouteCoordinates: routeCoordinates(stops),
		RecentActivity:   lastActivity(activity, maxRecentActivity),
	}
	data, err := EncodePayload(payload)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeOutput, "encode survey payload", err)
	}
	if err := writeOutput(plan.outputPath, data); err != nil {
		return "", apperrors.Wrap(apperrors.CodeOutput, "write survey payload", err)
	}

	completed := s.now()
	s.metrics.ObserveRun(completed.Sub(started))
	logger.Info("survey run complete", "stops", len(records), "surveyed", len(activity), "path", plan.outputPath)

	s.publish(ctx, logger, RunResult{
		RunID:       runID,
		OutputPath:  plan.outputPath,
		Payload:     data,
		Stops:       len(records),
		Surveyed:    len(activity),
		CompletedAt: completed,
	})
	return plan.outputPath, nil
}

func (s *service) surveyStop(ctx context.Context, logger *slog.Logger, stop StopConfig, plan runPlan, surveyTime string, runTimestamp time.Time) (StopRecord, bool) {
	logger = logger.With("stop_id", stop.ID)
	cameraID := strings.TrimSpace(stop.CameraUUID)
	if cameraID == "" || cameraID == UnprovisionedCamera {
		logger.Info("skipping stop: no cameraUuid set")
		return noDataRecord(stop), false
	}

	logger.Info("fetching frame")
	framePath, ok := s.fetcher.GetFrame(ctx, cameraID, stop.TimestampMs, plan.quality)
	if !ok {
		logger.Info("no frame; using no-data")
		return noDataRecord(stop), false
	}

	if plan.delay > 0 {
		s.sleep(ctx, plan.delay)
	}

	logger.Info("running amenity survey")
	amenities := s.surveyor.SurveyImage(ctx, framePath)
	s.storeImage(ctx, logger, stop.ID, framePath)

	record := baseRecord(stop)
	record.LastSurveyed = surveyTime
	record.Status = ComputeStatus(surveyTime, runTimestamp, s.cfg.Location)
	record.Amenities = amenities
	record.ImageURL = ImageURL(stop.ID)
	return record, true
}

func (s *service) storeImage(ctx context.Context, logger *slog.Logger, stopID, framePath string) {
	if s.images == nil {
		return
	}
	data, err := os.ReadFile(framePath)
	if err != nil {
		logger.Warn("read frame for image store failed", "error", err)
		return
	}
	if _, err := s.images.Put(ctx, ImageKey(stopID), data, "image/jpeg"); err != nil {
		logger.Warn("store stop image failed", "key", ImageKey(stopID), "error", err)
	}
}

func (s *service) publish(ctx context.Context, logger *slog.Logger, result RunResult) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, result); err != nil {
			logger.Warn("publish survey result failed", "publisher", fmt.Sprintf("%T", p), "error", err)
		}
	}
}

type runPlan struct {
	stopsConfigPath string
	quality         frame.Quality
	delay           time.Duration
	outputPath      string
}

func (s *service) resolve(opts RunOptions) runPlan {
	plan := runPlan{
		stopsConfigPath: firstNonEmpty(opts.StopsConfigPath, s.cfg.StopsConfigPath),
		quality:         frame.Quality(firstNonEmpty(string(opts.Quality), string(s.cfg.Quality), string(frame.DefaultQuality))),
		delay:           s.cfg.InterCallDelay,
		outputPath:      firstNonEmpty(opts.OutputPath, s.cfg.OutputPath),
	}
	if opts.InterCallDelay != nil {
		plan.delay = *opts.InterCallDelay
	}
	if plan.outputPath == "" {
		plan.outputPath = filepath.Join(s.cfg.OutputDir, "stops_output.json")
	}
	return plan
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func baseRecord(stop StopConfig) StopRecord {
	direction := stop.Direction
	if direction == "" {
		direction = defaultDirection
	}
	return StopRecord{
		ID:        stop.ID,
		Name:      stop.Name,
		Lat:       stop.Lat,
		Lon:       stop.Lon,
		Direction: direction,
	}
}

func noDataRecord(stop StopConfig) StopRecord {
	record := baseRecord(stop)
	record.LastSurveyed = ""
	record.Status = StatusNoData
	record.Amenities = amenity.Default()
	record.ImageURL = ""
	return record
}

func routeCoordinates(stops []StopConfig) [][2]float64 {
	coords := make([][2]float64, 0, len(stops))
	for _, stop := range stops {
		coords = append(coords, [2]float64{stop.Lat, stop.Lon})
	}
	return coords
}

// lastActivity keeps the newest n entries in chronological order.
func lastActivity(entries []ActivityEntry, n int) []ActivityEntry {
	if len(entries) <= n {
		return entries
	}
	out := make([]ActivityEntry, n)
	copy(out, entries[len(entries)-n:])
	return out
}

// EncodePayload renders the payload with two-space indentation.
func EncodePayload(payload RunPayload) ([]byte, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
