package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stop_survey"

// SurveyMetrics groups the collectors updated by a survey run.
// A nil *SurveyMetrics is valid and records nothing.
type SurveyMetrics struct {
	stops       *prometheus.CounterVec
	frames      *prometheus.CounterVec
	vision      *prometheus.CounterVec
	tokens      *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewSurveyMetrics builds the collectors and registers them on reg.
func NewSurveyMetrics(reg prometheus.Registerer) *SurveyMetrics {
	m := &SurveyMetrics{
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stops_total",
			Help:      "Stop records emitted, by freshness status.",
		}, []string{"status"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_fetch_total",
			Help:      "Camera frame fetch attempts, by result.",
		}, []string{"result"}),
		vision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_total",
			Help:      "Vision model survey attempts, by outcome.",
		}, []string{"outcome"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens reported by the vision model, by kind.",
		}, []string{"kind"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall clock duration of complete survey runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.stops, m.frames, m.vision, m.tokens, m.runDuration)
	}
	return m
}

// ObserveStop counts an emitted stop record.
func (m *SurveyMetrics) ObserveStop(status string) {
	if m == nil {
		return
	}
	m.stops.WithLabelValues(status).Inc()
}

// ObserveFrame counts a frame fetch attempt.
func (m *SurveyMetrics) ObserveFrame(result string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(result).Inc()
}

// ObserveVision counts a vision survey outcome.
func (m *SurveyMetrics) ObserveVision(outcome string) {
	if m == nil {
		return
	}
	m.vision.WithLabelValues(outcome).Inc()
}

// ObserveTokens adds reported token usage.
func (m *SurveyMetrics) ObserveTokens(usage TokenUsage) {
	if m == nil || usage.IsZero() {
		return
	}
	m.tokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	m.tokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
	m.tokens.WithLabelValues("total").Add(float64(usage.TotalTokens))
}

// ObserveRun records how long a run took.
func (m *SurveyMetrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}
