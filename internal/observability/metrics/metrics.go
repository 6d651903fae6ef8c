// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_speech_coach"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Analysis metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysesActive   prometheus.Gauge
	AnalysisDuration prometheus.Histogram

	// Audio metrics
	AudioBytesReceived prometheus.Counter
	AudioDuration      prometheus.Histogram

	// Transcript metrics
	SpeakingRate    prometheus.Histogram
	TranscriptWords prometheus.Histogram

	// STT metrics
	STTLatency *prometheus.HistogramVec
	STTErrors  *prometheus.CounterVec

	// Feedback metrics
	FeedbackLatency *prometheus.HistogramVec
	FeedbackErrors  *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// gRPC metrics
	GRPCRequests *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of analyses by outcome",
		}, []string{"purpose", "status"}),
		AnalysesActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analyses_active",
			Help:      "Number of analyses currently in flight",
		}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis latency in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),

		AudioBytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		AudioDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audio_duration_minutes",
			Help:      "Decoded duration of analysed recordings in minutes",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 10, 20, 30},
		}),

		SpeakingRate: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speaking_rate_wpm",
			Help:      "Measured speaking rate in words per minute",
			Buckets:   []float64{60, 90, 110, 120, 130, 140, 150, 160, 180, 200, 240},
		}),
		TranscriptWords: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcript_words",
			Help:      "Word count of transcripts",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		}),

		STTLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Speech-to-text request latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 60, 120},
		}, []string{"provider"}),
		STTErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of transcription failures",
		}, []string{"provider", "reason"}),

		FeedbackLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feedback_latency_seconds",
			Help:      "Text-generation latency per report in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"report"}),
		FeedbackErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_errors_total",
			Help:      "Total number of failed report generations",
		}, []string{"report"}),

		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		GRPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC requests by method and code",
		}, []string{"method", "code"}),
	}
}

// RecordAnalysisStart records a new analysis entering the pipeline.
func (m *Metrics) RecordAnalysisStart(audioBytes int) {
	m.AnalysesActive.Inc()
	m.AudioBytesReceived.Add(float64(audioBytes))
}

// RecordAnalysisEnd records an analysis leaving the pipeline.
// status is "completed" or the failed stage.
func (m *Metrics) RecordAnalysisEnd(purpose, status string, durationSeconds float64) {
	m.AnalysesActive.Dec()
	m.AnalysesTotal.WithLabelValues(purpose, status).Inc()
	m.AnalysisDuration.Observe(durationSeconds)
}

// RecordTranscription records the measurements of a successful transcription.
func (m *Metrics) RecordTranscription(words int, durationMinutes float64, wpm int) {
	m.TranscriptWords.Observe(float64(words))
	m.AudioDuration.Observe(durationMinutes)
	m.SpeakingRate.Observe(float64(wpm))
}

// RecordSTT records a speech-to-text call.
func (m *Metrics) RecordSTT(provider string, latencySeconds float64) {
	m.STTLatency.WithLabelValues(provider).Observe(latencySeconds)
}

// RecordSTTError records a transcription failure.
func (m *Metrics) RecordSTTError(provider, reason string) {
	m.STTErrors.WithLabelValues(provider, reason).Inc()
}

// RecordFeedback records one report generation.
func (m *Metrics) RecordFeedback(report string, err error, latencySeconds float64) {
	m.FeedbackLatency.WithLabelValues(report).Observe(latencySeconds)
	if err != nil {
		m.FeedbackErrors.WithLabelValues(report).Inc()
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordGRPC records a completed gRPC call.
func (m *Metrics) RecordGRPC(method, code string) {
	m.GRPCRequests.WithLabelValues(method, code).Inc()
}
