// Package analysis runs one speech through transcription and feedback
// generation, tracking its lifecycle and publishing the outcome.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ai-speech-coach-service/internal/models"
	"ai-speech-coach-service/internal/observability/logging"
	"ai-speech-coach-service/internal/observability/metrics"
	"ai-speech-coach-service/internal/report"
	"ai-speech-coach-service/internal/service/feedback"
	"ai-speech-coach-service/internal/service/transcription"
)

// ErrInvalidPurpose is returned when the request names an unknown purpose.
var ErrInvalidPurpose = feedback.ErrInvalidPurpose

const publishTimeout = 5 * time.Second

// Transcriber produces a transcript and speaking rate from audio.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, filename string) (*transcription.Result, error)
}

// FeedbackGenerator produces the tone and logic reports.
type FeedbackGenerator interface {
	Generate(ctx context.Context, transcript string, purpose feedback.Purpose, wpm int) (*feedback.Report, error)
}

// EventPublisher receives lifecycle events.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, event *models.AnalysisCompleted) error
	PublishFailed(ctx context.Context, event *models.AnalysisFailed) error
}

// Request is one uploaded speech.
type Request struct {
	Audio    []byte
	Filename string
	Purpose  string
}

// Analysis is the combined result of a successful run.
type Analysis struct {
	ID            string                `json:"id"`
	Purpose       feedback.Purpose      `json:"purpose"`
	Filename      string                `json:"filename"`
	Transcription *transcription.Result `json:"transcription"`
	Feedback      *feedback.Report      `json:"feedback"`
	Pace          report.Pace           `json:"pace"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// Markdown renders the analysis as a single markdown document.
func (a *Analysis) Markdown() string {
	return report.RenderMarkdown(report.Document{
		ID:              a.ID,
		Purpose:         a.Purpose.Label(),
		Filename:        a.Filename,
		Transcript:      a.Transcription.Text,
		WordCount:       a.Transcription.WordCount,
		DurationMinutes: a.Transcription.DurationMinutes,
		Pace:            a.Pace,
		ToneFeedback:    a.Feedback.ToneFeedback,
		LogicFeedback:   a.Feedback.LogicFeedback,
		Generated:       a.CreatedAt,
	})
}

// Service orchestrates transcription then feedback generation.
type Service struct {
	transcriber Transcriber
	generator   FeedbackGenerator
	publisher   EventPublisher
	ids         IDGenerator
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewService creates an analysis service. A nil ids uses UUIDs; a nil m uses metrics.DefaultMetrics.
func NewService(t Transcriber, g FeedbackGenerator, p EventPublisher, ids IDGenerator, m *metrics.Metrics) *Service {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Service{
		transcriber: t,
		generator:   g,
		publisher:   p,
		ids:         ids,
		metrics:     m,
		now:         time.Now,
	}
}

// Analyze validates the purpose, transcribes the audio and generates feedback.
// Stage errors are returned unchanged: *transcription.Error or *feedback.Error.
func (s *Service) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	purpose, err := feedback.ParsePurpose(req.Purpose)
	if err != nil {
		return nil, err
	}

	id := s.ids.Next()
	lc := NewLifecycle(id)
	logger := logging.WithAnalysis(id, purpose.Slug())
	start := s.now()

	s.metrics.RecordAnalysisStart(len(req.Audio))
	logger.Info().
		Str("filename", req.Filename).
		Int("bytes", len(req.Audio)).
		Msg("Analysis started")

	tr, err := s.transcriber.Transcribe(ctx, req.Audio, req.Filename)
	if err != nil {
		return nil, s.fail(ctx, logger, lc, purpose, start, err)
	}
	if err := lc.MarkTranscribed(); err != nil {
		return nil, s.fail(ctx, logger, lc, purpose, start, err)
	}
	logger.Info().
		Int("words", tr.WordCount).
		Float64("minutes", tr.DurationMinutes).
		Int("wpm", tr.WPM).
		Str("state", lc.State().String()).
		Msg("Transcription complete")
	logger.Debug().Str("transcript", tr.Text).Msg("Transcript")

	fb, err := s.generator.Generate(ctx, tr.Text, purpose, tr.WPM)
	if err != nil {
		return nil, s.fail(ctx, logger, lc, purpose, start, err)
	}
	if err := lc.Complete(); err != nil {
		return nil, s.fail(ctx, logger, lc, purpose, start, err)
	}

	result := &Analysis{
		ID:            id,
		Purpose:       purpose,
		Filename:      req.Filename,
		Transcription: tr,
		Feedback:      fb,
		Pace:          report.AssessPace(tr.WPM),
		CreatedAt:     start,
	}

	elapsed := s.now().Sub(start)
	s.metrics.RecordAnalysisEnd(purpose.Slug(), "completed", elapsed.Seconds())
	logger.Info().
		Str("pace", string(result.Pace.Status)).
		Dur("elapsed", elapsed).
		Str("state", lc.State().String()).
		Msg("Analysis completed")

	s.publishCompleted(ctx, logger, result)
	return result, nil
}

func (s *Service) fail(ctx context.Context, logger zerolog.Logger, lc *Lifecycle, purpose feedback.Purpose, start time.Time, cause error) error {
	stage, _ := lc.Fail()
	reason := failureReason(cause)
	elapsed := s.now().Sub(start)

	s.metrics.RecordAnalysisEnd(purpose.Slug(), "failed_"+stage, elapsed.Seconds())
	logger.Error().
		Err(cause).
		Str("stage", stage).
		Str("reason", reason).
		Dur("elapsed", elapsed).
		Msg("Analysis failed")

	if s.publisher != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		event := &models.AnalysisFailed{
			EventType:  models.EventAnalysisFailed,
			AnalysisID: lc.AnalysisID(),
			Purpose:    purpose.Label(),
			Timestamp:  s.now().UnixMilli(),
			Stage:      stage,
			Reason:     reason,
		}
		if err := s.publisher.PublishFailed(pctx, event); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish analysis failure event")
		}
	}
	return cause
}

func (s *Service) publishCompleted(ctx context.Context, logger zerolog.Logger, a *Analysis) {
	if s.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := &models.AnalysisCompleted{
		EventType:       models.EventAnalysisCompleted,
		AnalysisID:      a.ID,
		Purpose:         a.Purpose.Label(),
		Timestamp:       s.now().UnixMilli(),
		WordCount:       a.Transcription.WordCount,
		DurationMinutes: a.Transcription.DurationMinutes,
		WPM:             a.Transcription.WPM,
		Pace:            string(a.Pace.Status),
	}
	if err := s.publisher.PublishCompleted(pctx, event); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish analysis completed event")
	}
}

// failureReason maps a stage error to a short machine-readable reason.
func failureReason(err error) string {
	var terr *transcription.Error
	var ferr *feedback.Error
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &terr):
		return string(terr.Reason)
	case errors.As(err, &ferr) && ferr.Report != "":
		return ferr.Report + "_report"
	default:
		return "internal"
	}
}
