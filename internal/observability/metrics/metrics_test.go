package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAnalysisLifecycle(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAnalysisStart(2048)
	if got := testutil.ToFloat64(m.AnalysesActive); got != 1 {
		t.Errorf("expected 1 active analysis, got %v", got)
	}
	if got := testutil.ToFloat64(m.AudioBytesReceived); got != 2048 {
		t.Errorf("expected 2048 audio bytes, got %v", got)
	}

	m.RecordAnalysisEnd("academic presentation", "completed", 3.5)
	if got := testutil.ToFloat64(m.AnalysesActive); got != 0 {
		t.Errorf("expected 0 active analyses, got %v", got)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("academic presentation", "completed")); got != 1 {
		t.Errorf("expected 1 completed analysis, got %v", got)
	}
}

func TestRecordFeedback_CountsErrors(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordFeedback("tone", nil, 1)
	m.RecordFeedback("logic", errors.New("timeout"), 2)
	m.RecordFeedback("logic", errors.New("timeout"), 2)

	if got := testutil.ToFloat64(m.FeedbackErrors.WithLabelValues("logic")); got != 2 {
		t.Errorf("expected 2 logic errors, got %v", got)
	}
	if got := testutil.ToFloat64(m.FeedbackErrors.WithLabelValues("tone")); got != 0 {
		t.Errorf("expected 0 tone errors, got %v", got)
	}
}

func TestRecordKafkaPublish(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordKafkaPublish("speech.analysis.completed", "completed", nil, 0.01)
	m.RecordKafkaPublish("speech.analysis.completed", "completed", errors.New("broker down"), 0.02)

	if got := testutil.ToFloat64(m.KafkaPublishTotal.WithLabelValues("speech.analysis.completed", "completed")); got != 2 {
		t.Errorf("expected 2 publishes, got %v", got)
	}
	if got := testutil.ToFloat64(m.KafkaPublishErrors.WithLabelValues("speech.analysis.completed", "completed")); got != 1 {
		t.Errorf("expected 1 publish error, got %v", got)
	}
}
