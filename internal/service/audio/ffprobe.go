package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FFprobeDecoder shells out to ffprobe. It accepts the same formats as
// NativeDecoder but tolerates files the pure Go parsers reject.
type FFprobeDecoder struct {
	Path string // ffprobe binary; defaults to "ffprobe" on PATH
}

// NewFFprobeDecoder creates a decoder using the given binary path.
func NewFFprobeDecoder(path string) *FFprobeDecoder {
	if path == "" {
		path = "ffprobe"
	}
	return &FFprobeDecoder{Path: path}
}

func (d *FFprobeDecoder) Duration(ctx context.Context, path string) (time.Duration, error) {
	if _, err := FormatOf(path); err != nil {
		return 0, err
	}

	// ffprobe -v error -show_entries format=duration -of default=noprint_wrappers=1:nokey=1 input
	cmd := exec.CommandContext(ctx, d.Path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseFFprobeDuration(stdout.String())
}

func parseFFprobeDuration(out string) (time.Duration, error) {
	out = strings.TrimSpace(out)
	if out == "" || out == "N/A" {
		return 0, fmt.Errorf("%w: ffprobe reported no duration", ErrCorrupt)
	}
	secs, err := strconv.ParseFloat(out, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("%w: ffprobe duration %q", ErrCorrupt, out)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
