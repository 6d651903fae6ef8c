// Package transcription turns an uploaded recording into a transcript and a
// speaking-rate measurement.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ai-speech-coach-service/internal/observability/logging"
	"ai-speech-coach-service/internal/observability/metrics"
	"ai-speech-coach-service/internal/service/audio"
	"ai-speech-coach-service/internal/service/stt"
)

// Result is the outcome of a successful transcription.
type Result struct {
	Text            string  `json:"text"`
	WordCount       int     `json:"wordCount"`
	DurationMinutes float64 `json:"durationMinutes"`
	WPM             int     `json:"wpm"`
}

// Options tunes the service.
type Options struct {
	TempDir string        // directory for the scratch file; os.TempDir() when empty
	Timeout time.Duration // bound on provider + decoder work; 0 means none
}

// Service runs the speech-to-text provider and the duration decoder over one file.
type Service struct {
	adapter stt.Adapter
	decoder audio.Decoder
	opts    Options
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewService creates a transcription service. A nil m uses metrics.DefaultMetrics.
func NewService(adapter stt.Adapter, decoder audio.Decoder, opts Options, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Service{
		adapter: adapter,
		decoder: decoder,
		opts:    opts,
		metrics: m,
		log:     logging.WithComponent("transcription"),
	}
}

// Transcribe writes data to a temporary file named after filename's extension,
// transcribes it and measures its duration. The file is removed before return.
func (s *Service) Transcribe(ctx context.Context, data []byte, filename string) (*Result, error) {
	if len(data) == 0 {
		return nil, s.failed(fail(ReasonInvalidInput, ErrEmptyAudio))
	}
	format, err := audio.FormatOf(filename)
	if err != nil {
		return nil, s.failed(fail(ReasonInvalidInput, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)))
	}
	if fc, ok := s.adapter.(stt.FormatChecker); ok && !fc.Supports(filename) {
		return nil, s.failed(fail(ReasonInvalidInput, fmt.Errorf("%w: %s cannot transcribe %q", stt.ErrUnsupportedFormat, s.adapter.Name(), filename)))
	}

	path, err := s.writeTemp(data, format)
	if err != nil {
		return nil, s.failed(fail(ReasonTempFile, err))
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove temp audio file")
		}
	}()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	var (
		text     string
		duration time.Duration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		t, err := s.adapter.Transcribe(gctx, path)
		s.metrics.RecordSTT(s.adapter.Name(), time.Since(start).Seconds())
		if errors.Is(err, stt.ErrUnsupportedFormat) {
			return fail(ReasonInvalidInput, err)
		}
		if err != nil {
			return fail(ReasonProvider, err)
		}
		text = t
		return nil
	})
	g.Go(func() error {
		d, err := s.decoder.Duration(gctx, path)
		if err != nil {
			return fail(ReasonDecode, err)
		}
		duration = d
		return nil
	})
	if err := g.Wait(); err != nil {
		var terr *Error
		if errors.As(err, &terr) {
			return nil, s.failed(terr)
		}
		return nil, s.failed(fail(ReasonProvider, err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, s.failed(fail(ReasonEmptyTranscript, ErrEmptyTranscript))
	}

	minutes := float64(duration.Milliseconds()) / 1000 / 60
	words := CountWords(text)
	res := &Result{
		Text:            text,
		WordCount:       words,
		DurationMinutes: minutes,
		WPM:             ComputeWPM(words, minutes),
	}
	s.metrics.RecordTranscription(res.WordCount, res.DurationMinutes, res.WPM)

	s.log.Debug().
		Str("provider", s.adapter.Name()).
		Int("words", res.WordCount).
		Float64("minutes", res.DurationMinutes).
		Int("wpm", res.WPM).
		Msg("Transcription complete")

	return res, nil
}

func (s *Service) writeTemp(data []byte, format audio.Format) (string, error) {
	f, err := os.CreateTemp(s.opts.TempDir, "speech-*."+string(format))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return filepath.Clean(path), nil
}

func (s *Service) failed(err *Error) *Error {
	s.metrics.RecordSTTError(s.adapter.Name(), string(err.Reason))
	return err
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ComputeWPM returns words per minute rounded half to even, or 0 when minutes is not positive.
func ComputeWPM(words int, minutes float64) int {
	if minutes <= 0 {
		return 0
	}
	return int(math.RoundToEven(float64(words) / minutes))
}
