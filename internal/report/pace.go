// Package report assesses speaking pace and renders analysis results as markdown.
package report

import "math"

// Standard conversational presentation range, in words per minute.
const (
	StandardMinWPM = 120
	StandardMaxWPM = 160
	gaugeMaxWPM    = 200
)

// PaceStatus is the verdict on a measured speaking rate.
type PaceStatus string

const (
	PaceSlow        PaceStatus = "slow"
	PaceAppropriate PaceStatus = "appropriate"
	PaceFast        PaceStatus = "fast"
)

// Pace is the assessment of one speaking rate.
type Pace struct {
	Status   PaceStatus `json:"status"`
	WPM      int        `json:"wpm"`
	MinWPM   int        `json:"minWpm"`
	MaxWPM   int        `json:"maxWpm"`
	Progress float64    `json:"progress"` // wpm/200 clamped to [0, 1], for gauges
}

// AssessPace classifies wpm against the standard range. Both bounds count as appropriate.
func AssessPace(wpm int) Pace {
	status := PaceAppropriate
	switch {
	case wpm < StandardMinWPM:
		status = PaceSlow
	case wpm > StandardMaxWPM:
		status = PaceFast
	}
	return Pace{
		Status:   status,
		WPM:      wpm,
		MinWPM:   StandardMinWPM,
		MaxWPM:   StandardMaxWPM,
		Progress: math.Max(0, math.Min(float64(wpm)/gaugeMaxWPM, 1)),
	}
}
