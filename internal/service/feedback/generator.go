// Package feedback builds the delivery and logic prompts for a transcript and
// collects the two markdown reports from a text-generation provider.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ai-speech-coach-service/internal/observability/logging"
	"ai-speech-coach-service/internal/observability/metrics"
	"ai-speech-coach-service/internal/service/llm"
)

// Report names used in errors and metrics.
const (
	ReportTone  = "tone"
	ReportLogic = "logic"
)

// Report holds both generated reports, unmodified.
type Report struct {
	ToneFeedback  string `json:"toneFeedback"`
	LogicFeedback string `json:"logicFeedback"`
}

// Error is returned when either report cannot be produced.
type Error struct {
	Report string // ReportTone, ReportLogic, or empty when input was rejected
	Err    error
}

func (e *Error) Error() string {
	if e.Report == "" {
		return fmt.Sprintf("feedback generation failed: %v", e.Err)
	}
	return fmt.Sprintf("feedback generation failed (%s report): %v", e.Report, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options tunes the generator.
type Options struct {
	Model   string
	Timeout time.Duration // per report; 0 means none
}

// Generator produces feedback reports.
type Generator struct {
	client  llm.Client
	opts    Options
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewGenerator creates a generator. A nil m uses metrics.DefaultMetrics.
func NewGenerator(client llm.Client, opts Options, m *metrics.Metrics) *Generator {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Generator{
		client:  client,
		opts:    opts,
		metrics: m,
		log:     logging.WithComponent("feedback"),
	}
}

// Generate requests the tone and logic reports concurrently. Both must succeed.
func (g *Generator) Generate(ctx context.Context, transcript string, purpose Purpose, wpm int) (*Report, error) {
	if !purpose.Valid() {
		return nil, &Error{Err: fmt.Errorf("%w: %q", ErrInvalidPurpose, purpose)}
	}

	tonePrompt, err := RenderTonePrompt(purpose, transcript, wpm)
	if err != nil {
		return nil, &Error{Report: ReportTone, Err: err}
	}
	logicPrompt, err := RenderLogicPrompt(purpose, transcript)
	if err != nil {
		return nil, &Error{Report: ReportLogic, Err: err}
	}

	var report Report
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := g.request(egctx, ReportTone, tonePrompt)
		report.ToneFeedback = out
		return err
	})
	eg.Go(func() error {
		out, err := g.request(egctx, ReportLogic, logicPrompt)
		report.LogicFeedback = out
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &report, nil
}

func (g *Generator) request(ctx context.Context, name, prompt string) (string, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.client.Generate(ctx, llm.Request{Model: g.opts.Model, Prompt: prompt})
	if err == nil && strings.TrimSpace(out) == "" {
		err = llm.ErrEmptyCompletion
	}
	g.metrics.RecordFeedback(name, err, time.Since(start).Seconds())

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.log.Warn().Err(err).Str("report", name).Msg("Report generation failed")
		}
		return "", &Error{Report: name, Err: err}
	}
	return out, nil
}
