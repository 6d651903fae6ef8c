// Package schema checks outgoing events before they are published.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"ai-speech-coach-service/internal/models"
)

// ErrInvalidEvent is wrapped by every validation failure.
var ErrInvalidEvent = errors.New("invalid event")

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks required fields of known event types. Unknown types are rejected.
func (v *Validator) Validate(event any) error {
	switch e := event.(type) {
	case *models.AnalysisCompleted:
		return v.completed(e)
	case models.AnalysisCompleted:
		return v.completed(&e)
	case *models.AnalysisFailed:
		return v.failed(e)
	case models.AnalysisFailed:
		return v.failed(&e)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidEvent, event)
	}
}

func (v *Validator) completed(e *models.AnalysisCompleted) error {
	var missing []string
	if e.EventType != models.EventAnalysisCompleted {
		missing = append(missing, "eventType")
	}
	if e.AnalysisID == "" {
		missing = append(missing, "analysisId")
	}
	if e.Purpose == "" {
		missing = append(missing, "purpose")
	}
	if e.Timestamp <= 0 {
		missing = append(missing, "timestamp")
	}
	if e.Pace == "" {
		missing = append(missing, "pace")
	}
	if e.WordCount < 0 || e.WPM < 0 || e.DurationMinutes < 0 {
		missing = append(missing, "measurements")
	}
	return result(missing)
}

func (v *Validator) failed(e *models.AnalysisFailed) error {
	var missing []string
	if e.EventType != models.EventAnalysisFailed {
		missing = append(missing, "eventType")
	}
	if e.AnalysisID == "" {
		missing = append(missing, "analysisId")
	}
	if e.Timestamp <= 0 {
		missing = append(missing, "timestamp")
	}
	if e.Stage == "" {
		missing = append(missing, "stage")
	}
	if e.Reason == "" {
		missing = append(missing, "reason")
	}
	return result(missing)
}

func result(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return fmt.Errorf("%w: bad fields: %s", ErrInvalidEvent, strings.Join(fields, ", "))
}
