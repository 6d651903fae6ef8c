package schema

import (
	"errors"
	"strings"
	"testing"

	"ai-speech-coach-service/internal/models"
)

func validCompleted() models.AnalysisCompleted {
	return models.AnalysisCompleted{
		EventType:       models.EventAnalysisCompleted,
		AnalysisID:      "a-1",
		Purpose:         "investment pitch",
		Timestamp:       1700000000000,
		WordCount:       300,
		DurationMinutes: 2.5,
		WPM:             120,
		Pace:            "appropriate",
	}
}

func validFailed() models.AnalysisFailed {
	return models.AnalysisFailed{
		EventType:  models.EventAnalysisFailed,
		AnalysisID: "a-1",
		Purpose:    "investment pitch",
		Timestamp:  1700000000000,
		Stage:      "transcription",
		Reason:     "provider",
	}
}

func TestValidate_Completed(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.AnalysisCompleted)
		wantErr string
	}{
		{"valid", func(*models.AnalysisCompleted) {}, ""},
		{"zero measurements", func(e *models.AnalysisCompleted) { e.WordCount, e.WPM, e.DurationMinutes = 0, 0, 0 }, ""},
		{"wrong event type", func(e *models.AnalysisCompleted) { e.EventType = models.EventAnalysisFailed }, "eventType"},
		{"missing id", func(e *models.AnalysisCompleted) { e.AnalysisID = "" }, "analysisId"},
		{"missing purpose", func(e *models.AnalysisCompleted) { e.Purpose = "" }, "purpose"},
		{"missing timestamp", func(e *models.AnalysisCompleted) { e.Timestamp = 0 }, "timestamp"},
		{"missing pace", func(e *models.AnalysisCompleted) { e.Pace = "" }, "pace"},
		{"negative wpm", func(e *models.AnalysisCompleted) { e.WPM = -1 }, "measurements"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validCompleted()
			tt.mutate(&e)

			err := v.Validate(&e)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidEvent) {
				t.Fatalf("expected ErrInvalidEvent, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error to name %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_Failed(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.AnalysisFailed)
		wantErr string
	}{
		{"valid", func(*models.AnalysisFailed) {}, ""},
		{"purpose optional", func(e *models.AnalysisFailed) { e.Purpose = "" }, ""},
		{"missing stage", func(e *models.AnalysisFailed) { e.Stage = "" }, "stage"},
		{"missing reason", func(e *models.AnalysisFailed) { e.Reason = "" }, "reason"},
		{"missing id", func(e *models.AnalysisFailed) { e.AnalysisID = "" }, "analysisId"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validFailed()
			tt.mutate(&e)

			err := v.Validate(e)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidEvent) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error naming %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_UnknownType(t *testing.T) {
	if err := New().Validate(map[string]string{"text": "hi"}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent, got %v", err)
	}
}
