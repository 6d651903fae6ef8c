package transcription

import (
	"errors"
	"fmt"

	"ai-speech-coach-service/internal/service/audio"
)

// Reason classifies a transcription failure.
type Reason string

const (
	ReasonInvalidInput    Reason = "invalid_input"
	ReasonTempFile        Reason = "temp_file"
	ReasonProvider        Reason = "provider"
	ReasonDecode          Reason = "decode"
	ReasonEmptyTranscript Reason = "empty_transcript"
)

var (
	ErrEmptyAudio = errors.New("audio is empty")
	// ErrUnsupportedFormat is shared with the decoder package so either check matches.
	ErrUnsupportedFormat = audio.ErrUnsupportedFormat
	ErrEmptyTranscript   = errors.New("provider returned an empty transcript")
)

// Error is returned for every failed Transcribe call.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcription failed (%s): %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(reason Reason, err error) *Error {
	return &Error{Reason: reason, Err: err}
}
