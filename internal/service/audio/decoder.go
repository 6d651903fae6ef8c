// Package audio measures the playback duration of uploaded speech recordings.
package audio

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrCorrupt is returned when a file cannot be parsed as its extension claims.
	ErrCorrupt = errors.New("corrupt audio file")
)

// Format is a supported container/codec, identified by file extension.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatM4A Format = "m4a"
)

// SupportedFormats lists the formats accepted for analysis.
var SupportedFormats = []Format{FormatMP3, FormatWAV, FormatM4A}

// Decoder reports the duration of an audio file on disk.
type Decoder interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FormatOf maps a filename to its Format. The match is case-insensitive.
func FormatOf(filename string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, f := range SupportedFormats {
		if Format(ext) == f {
			return f, nil
		}
	}
	return "", ErrUnsupportedFormat
}
