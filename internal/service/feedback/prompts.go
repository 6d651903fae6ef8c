package feedback

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var prompts = template.Must(template.New("prompts").ParseFS(templateFS, "templates/*.tmpl"))

type promptData struct {
	Purpose    string
	Transcript string
	WPM        int
}

// RenderTonePrompt renders the delivery and vocabulary prompt.
func RenderTonePrompt(purpose Purpose, transcript string, wpm int) (string, error) {
	return render("tone.tmpl", promptData{Purpose: purpose.Label(), Transcript: transcript, WPM: wpm})
}

// RenderLogicPrompt renders the logical-structure prompt. It does not depend on the speaking rate.
func RenderLogicPrompt(purpose Purpose, transcript string) (string, error) {
	return render("logic.tmpl", promptData{Purpose: purpose.Label(), Transcript: transcript})
}

func render(name string, data promptData) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}
