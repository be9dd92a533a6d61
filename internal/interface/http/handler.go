package http

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/stop-survey/internal/domain/survey"
	apperrors "github.com/yanqian/stop-survey/pkg/errors"
)

// Handler wires the HTTP transport to the survey service and its outputs.
type Handler struct {
	surveySvc  survey.Service
	images     survey.ImageStore
	outputPath string
	runMu      sync.Mutex
	runs       sync.WaitGroup
	logger     *slog.Logger
}

// NewHandler constructs the dashboard HTTP handler. outputPath is the payload the
// dashboard reads; images may be nil when no image store is configured.
func NewHandler(surveySvc survey.Service, images survey.ImageStore, outputPath string, logger *slog.Logger) *Handler {
	return &Handler{
		surveySvc:  surveySvc,
		images:     images,
		outputPath: outputPath,
		logger:     logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LatestSurvey serves the most recent payload straight from disk.
func (h *Handler) LatestSurvey(c *gin.Context) {
	data, err := os.ReadFile(h.outputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			abortWithError(c, NewHTTPError(http.StatusNotFound, codeNotFound, "no survey output yet", err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "output_unreadable", "failed to read survey output", err))
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// StopImage streams a stop's latest frame from the image store.
func (h *Handler) StopImage(c *gin.Context) {
	file := c.Param("file")
	if h.images == nil || !strings.HasSuffix(file, ".jpg") || strings.Contains(file, "..") {
		abortWithError(c, NewHTTPError(http.StatusNotFound, codeNotFound, "image not found", nil))
		return
	}
	key := survey.ImageKey(strings.TrimSuffix(file, ".jpg"))
	rc, err := h.images.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			abortWithError(c, NewHTTPError(http.StatusNotFound, codeNotFound, "image not found", err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusBadGateway, "image_store_error", "failed to load image", err))
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "image/jpeg")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Warn("stream stop image failed", "key", key, "error", err)
	}
}

// TriggerSurvey starts one survey with the configured defaults and answers 202
// immediately. The run outlives the request; runs never overlap.
func (h *Handler) TriggerSurvey(c *gin.Context) {
	if !h.runMu.TryLock() {
		abortWithError(c, fromAppError(apperrors.Wrap(apperrors.CodeBusy, "a survey run is already in progress", nil)))
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		defer h.runMu.Unlock()
		path, err := h.surveySvc.Run(ctx, survey.RunOptions{})
		if err != nil {
			h.logger.Error("triggered survey run failed", "error", err)
			return
		}
		h.logger.Info("triggered survey run complete", "path", path)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "outputPath": h.outputPath})
}
