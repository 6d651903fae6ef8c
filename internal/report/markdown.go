package report

import (
	"fmt"
	"strings"
	"time"
)

// Document is everything the markdown report shows.
type Document struct {
	ID              string
	Purpose         string
	Filename        string
	Transcript      string
	WordCount       int
	DurationMinutes float64
	Pace            Pace
	ToneFeedback    string
	LogicFeedback   string
	Generated       time.Time
}

// RenderMarkdown renders the transcript, pace summary and both reports as one document.
// The two reports are inserted untouched.
func RenderMarkdown(doc Document) string {
	var b strings.Builder

	b.WriteString("# Speech Coaching Report\n\n")
	if doc.Purpose != "" {
		fmt.Fprintf(&b, "- Purpose: %s\n", doc.Purpose)
	}
	if doc.Filename != "" {
		fmt.Fprintf(&b, "- Recording: `%s`\n", doc.Filename)
	}
	if doc.ID != "" {
		fmt.Fprintf(&b, "- Analysis: `%s`\n", doc.ID)
	}
	fmt.Fprintf(&b, "- Duration: %.1f min\n", doc.DurationMinutes)
	fmt.Fprintf(&b, "- Words: %d\n", doc.WordCount)
	fmt.Fprintf(&b, "- Speaking rate: %d WPM (%s, standard %d-%d)\n",
		doc.Pace.WPM, doc.Pace.Status, doc.Pace.MinWPM, doc.Pace.MaxWPM)
	if !doc.Generated.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", doc.Generated.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## Transcript\n\n")
	for _, line := range strings.Split(strings.TrimSpace(doc.Transcript), "\n") {
		fmt.Fprintf(&b, "> %s\n", line)
	}
	b.WriteString("\n")

	b.WriteString("## Delivery & Tone Feedback\n\n")
	b.WriteString(strings.TrimSpace(doc.ToneFeedback))
	b.WriteString("\n\n")

	b.WriteString("## Content & Logic Feedback\n\n")
	b.WriteString(strings.TrimSpace(doc.LogicFeedback))
	b.WriteString("\n")

	return b.String()
}
