package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"

	"ai-speech-coach-service/internal/models"
	"ai-speech-coach-service/internal/observability/metrics"
	"ai-speech-coach-service/internal/schema"
)

// fakeWriter records messages instead of talking to a broker.
type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}

func completedEvent() *models.AnalysisCompleted {
	return &models.AnalysisCompleted{
		EventType:       models.EventAnalysisCompleted,
		AnalysisID:      "a-123",
		Purpose:         "investment pitch",
		Timestamp:       time.Now().UnixMilli(),
		WordCount:       280,
		DurationMinutes: 2,
		WPM:             140,
		Pace:            "appropriate",
	}
}

func failedEvent() *models.AnalysisFailed {
	return &models.AnalysisFailed{
		EventType:  models.EventAnalysisFailed,
		AnalysisID: "a-123",
		Purpose:    "investment pitch",
		Timestamp:  time.Now().UnixMilli(),
		Stage:      "feedback",
		Reason:     "logic_report",
	}
}

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg, testMetrics())
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerCompleted != nil {
				t.Error("expected nil completed writer when disabled")
			}
			if p.writerFailed != nil {
				t.Error("expected nil failed writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:        false,
		Brokers:        []string{"localhost:9092"},
		TopicCompleted: "test.completed",
		TopicFailed:    "test.failed",
		Principal:      "test-principal",
	}

	p := New(cfg, testMetrics())

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicCompleted != "test.completed" {
		t.Errorf("expected topic completed 'test.completed', got %s", p.topicCompleted)
	}
	if p.topicFailed != "test.failed" {
		t.Errorf("expected topic failed 'test.failed', got %s", p.topicFailed)
	}
}

func TestNew_EnabledCreatesWriters(t *testing.T) {
	p := New(&Config{Enabled: true, Brokers: []string{"localhost:9092"}, TopicCompleted: "c", TopicFailed: "f"}, testMetrics())
	defer p.Close()

	if !p.enabled {
		t.Fatal("expected publisher to be enabled")
	}
	w, ok := p.writerCompleted.(*kafka.Writer)
	if !ok || w.Topic != "c" {
		t.Errorf("expected kafka writer for topic c, got %#v", p.writerCompleted)
	}
}

func TestPublisher_Disabled(t *testing.T) {
	m := testMetrics()
	p := New(&Config{Enabled: false, TopicCompleted: "test.completed", TopicFailed: "test.failed"}, m)

	if err := p.PublishCompleted(context.Background(), completedEvent()); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
	if err := p.PublishFailed(context.Background(), failedEvent()); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
	if got := testutil.ToFloat64(m.KafkaPublishTotal.WithLabelValues("test.completed", models.EventAnalysisCompleted)); got != 1 {
		t.Errorf("expected 1 completed publish recorded, got %v", got)
	}
}

func TestPublisher_RejectsInvalidEvent(t *testing.T) {
	w := &fakeWriter{}
	m := testMetrics()
	p := &Publisher{writerCompleted: w, topicCompleted: "c", enabled: true, validator: schema.New(), metrics: m}

	event := completedEvent()
	event.AnalysisID = ""

	err := p.PublishCompleted(context.Background(), event)
	if !errors.Is(err, schema.ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent, got %v", err)
	}
	if len(w.msgs) != 0 {
		t.Error("invalid event must not reach the writer")
	}
	if got := testutil.ToFloat64(m.KafkaPublishErrors.WithLabelValues("c", models.EventAnalysisCompleted)); got != 1 {
		t.Errorf("expected 1 publish error recorded, got %v", got)
	}
}

func TestPublisher_WritesMessage(t *testing.T) {
	completed, failed := &fakeWriter{}, &fakeWriter{}
	p := &Publisher{
		writerCompleted: completed,
		writerFailed:    failed,
		principal:       "svc-speech-coach",
		topicCompleted:  "c",
		topicFailed:     "f",
		enabled:         true,
		validator:       schema.New(),
		metrics:         testMetrics(),
	}

	if err := p.PublishCompleted(context.Background(), completedEvent()); err != nil {
		t.Fatalf("PublishCompleted: %v", err)
	}
	if err := p.PublishFailed(context.Background(), failedEvent()); err != nil {
		t.Fatalf("PublishFailed: %v", err)
	}

	if len(completed.msgs) != 1 || len(failed.msgs) != 1 {
		t.Fatalf("expected one message per topic, got %d and %d", len(completed.msgs), len(failed.msgs))
	}

	msg := completed.msgs[0]
	if string(msg.Key) != "a-123" {
		t.Errorf("expected key a-123, got %s", msg.Key)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["eventType"] != models.EventAnalysisCompleted {
		t.Errorf("unexpected eventType header %q", headers["eventType"])
	}
	if headers["principal"] != "svc-speech-coach" {
		t.Errorf("unexpected principal header %q", headers["principal"])
	}

	var body map[string]any
	if err := json.Unmarshal(msg.Value, &body); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if body["wpm"] != float64(140) {
		t.Errorf("expected wpm 140 in payload, got %v", body["wpm"])
	}
	if _, ok := body["text"]; ok {
		t.Error("payload must not carry transcript text")
	}
}

func TestPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker unreachable")
	m := testMetrics()
	p := &Publisher{writerFailed: &fakeWriter{err: boom}, topicFailed: "f", enabled: true, validator: schema.New(), metrics: m}

	if err := p.PublishFailed(context.Background(), failedEvent()); !errors.Is(err, boom) {
		t.Errorf("expected broker error, got %v", err)
	}
	if got := testutil.ToFloat64(m.KafkaPublishErrors.WithLabelValues("f", models.EventAnalysisFailed)); got != 1 {
		t.Errorf("expected 1 publish error recorded, got %v", got)
	}
}

func TestPublisher_Close(t *testing.T) {
	completed, failed := &fakeWriter{}, &fakeWriter{}
	p := &Publisher{writerCompleted: completed, writerFailed: failed}

	if err := p.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !completed.closed || !failed.closed {
		t.Error("expected both writers to be closed")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false}, testMetrics())

	err := p.Close()
	if err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}
