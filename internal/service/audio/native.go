package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abema/go-mp4"
	"github.com/go-audio/wav"
	"github.com/tcolgate/mp3"
)

// NativeDecoder reads durations with pure Go parsers, no external binaries.
type NativeDecoder struct{}

// NewNativeDecoder creates a NativeDecoder.
func NewNativeDecoder() *NativeDecoder {
	return &NativeDecoder{}
}

// Duration opens the file and dispatches on its extension.
func (d *NativeDecoder) Duration(ctx context.Context, path string) (time.Duration, error) {
	format, err := FormatOf(path)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatWAV:
		return wavDuration(f)
	case FormatMP3:
		return mp3Duration(ctx, f)
	case FormatM4A:
		return m4aDuration(f)
	default:
		return 0, ErrUnsupportedFormat
	}
}

func wavDuration(r io.ReadSeeker) (time.Duration, error) {
	dec := wav.NewDecoder(r)
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("%w: wav: %v", ErrCorrupt, err)
	}
	if dec.AvgBytesPerSec == 0 {
		return 0, fmt.Errorf("%w: wav: missing byte rate", ErrCorrupt)
	}
	secs := float64(dec.PCMLen()) / float64(dec.AvgBytesPerSec)
	return time.Duration(secs * float64(time.Second)), nil
}

// mp3Duration sums frame durations, which also handles VBR files.
func mp3Duration(ctx context.Context, r io.Reader) (time.Duration, error) {
	dec := mp3.NewDecoder(r)

	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
		frames  int
	)
	for {
		if frames%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, fmt.Errorf("%w: mp3: %v", ErrCorrupt, err)
		}
		total += frame.Duration()
		frames++
	}
	if frames == 0 {
		return 0, fmt.Errorf("%w: mp3: no frames", ErrCorrupt)
	}
	return total, nil
}

func m4aDuration(r io.ReadSeeker) (time.Duration, error) {
	info, err := mp4.Probe(r)
	if err != nil {
		return 0, fmt.Errorf("%w: m4a: %v", ErrCorrupt, err)
	}
	if info.Timescale == 0 {
		return 0, fmt.Errorf("%w: m4a: missing timescale", ErrCorrupt)
	}
	secs := float64(info.Duration) / float64(info.Timescale)
	return time.Duration(secs * float64(time.Second)), nil
}
