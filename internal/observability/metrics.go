package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 每个管线阶段的耗时
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hearthly_pipeline_stage_duration_seconds",
		Help:    "Duration of each voice pipeline stage in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stage"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearthly_pipeline_requests_total",
		Help: "Total number of pipeline runs by outcome",
	}, []string{"outcome"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearthly_pipeline_errors_total",
		Help: "Total number of pipeline failures by stage and error kind",
	}, []string{"stage", "kind"})

	ffmpegInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hearthly_ffmpeg_in_flight",
		Help: "Number of ffmpeg processes currently running",
	})

	wsSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hearthly_ws_sessions_active",
		Help: "Number of open WebSocket sessions",
	})
)

// Outcome labels
const (
	OutcomeSuccess     = "success"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
)

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRequest counts a finished pipeline run.
func RecordRequest(outcome string) {
	requestsTotal.WithLabelValues(outcome).Inc()
}

// RecordError counts a pipeline failure.
func RecordError(stage, kind string) {
	errorsTotal.WithLabelValues(stage, kind).Inc()
}

// RequestCount returns the current value of the run counter for outcome.
func RequestCount(outcome string) prometheus.Counter {
	return requestsTotal.WithLabelValues(outcome)
}

// ErrorCount returns the failure counter for stage and kind.
func ErrorCount(stage, kind string) prometheus.Counter {
	return errorsTotal.WithLabelValues(stage, kind)
}

// FFmpegStarted / FFmpegFinished track running ffmpeg processes.
func FFmpegStarted() { ffmpegInFlight.Inc() }

func FFmpegFinished() { ffmpegInFlight.Dec() }

// SessionOpened / SessionClosed track WebSocket sessions.
func SessionOpened() { wsSessions.Inc() }

func SessionClosed() { wsSessions.Dec() }
