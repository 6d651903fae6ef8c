package feedback

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPurpose is returned for a purpose outside the supported set.
var ErrInvalidPurpose = errors.New("invalid purpose")

// Purpose is the audience/situation a speech is prepared for.
type Purpose string

const (
	PurposeInvestmentPitch      Purpose = "investment pitch"
	PurposeJobInterview         Purpose = "professional job interview"
	PurposeAcademicPresentation Purpose = "academic presentation"
	PurposeTeamPresentation     Purpose = "general team presentation"
)

var purposeSlugs = map[Purpose]string{
	PurposeInvestmentPitch:      "investment-pitch",
	PurposeJobInterview:         "job-interview",
	PurposeAcademicPresentation: "academic-presentation",
	PurposeTeamPresentation:     "team-presentation",
}

// Purposes returns every supported purpose in display order.
func Purposes() []Purpose {
	return []Purpose{
		PurposeInvestmentPitch,
		PurposeJobInterview,
		PurposeAcademicPresentation,
		PurposeTeamPresentation,
	}
}

// ParsePurpose accepts a label (case-insensitive) or its slug.
func ParsePurpose(s string) (Purpose, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Purposes() {
		if norm == string(p) || norm == purposeSlugs[p] {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPurpose, s)
}

// Valid reports whether p is one of the supported purposes.
func (p Purpose) Valid() bool {
	_, ok := purposeSlugs[p]
	return ok
}

// Label is the human-readable form used in prompts.
func (p Purpose) Label() string { return string(p) }

// Slug is the URL-friendly form.
func (p Purpose) Slug() string { return purposeSlugs[p] }

func (p Purpose) String() string { return string(p) }
