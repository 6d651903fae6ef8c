// Package models defines the data structures for analysis lifecycle events.
package models

// Event types carried in the eventType field and Kafka header.
const (
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisFailed    = "analysis.failed"
)

// AnalysisCompleted is published when both feedback reports were produced.
// It carries measurements only, never the transcript or report text.
type AnalysisCompleted struct {
	EventType       string  `json:"eventType"`
	AnalysisID      string  `json:"analysisId"`
	Purpose         string  `json:"purpose"`
	Timestamp       int64   `json:"timestamp"`
	WordCount       int     `json:"wordCount"`
	DurationMinutes float64 `json:"durationMinutes"`
	WPM             int     `json:"wpm"`
	Pace            string  `json:"pace"`
}

// AnalysisFailed is published when a stage fails.
type AnalysisFailed struct {
	EventType  string `json:"eventType"`
	AnalysisID string `json:"analysisId"`
	Purpose    string `json:"purpose"`
	Timestamp  int64  `json:"timestamp"`
	Stage      string `json:"stage"`  // transcription or feedback
	Reason     string `json:"reason"` // machine-readable failure reason
}
