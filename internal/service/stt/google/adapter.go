// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"

	"ai-speech-coach-service/internal/service/stt"
)

// Config holds Google STT configuration.
type Config struct {
	LanguageCode  string
	SampleRateHz  int32  // 0 lets the service read it from the file header
	AudioEncoding string // empty selects the encoding from the file extension
}

// DefaultConfig returns the default Google STT configuration.
func DefaultConfig() Config {
	return Config{
		LanguageCode: "en-US",
	}
}

// Recognizer is the subset of the speech client the adapter uses.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Adapter implements stt.Adapter using synchronous recognition, which Google
// limits to about one minute of audio.
type Adapter struct {
	client Recognizer
	cfg    Config
}

// New creates a new Google STT adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return NewWithClient(c, cfg), nil
}

// NewWithClient wraps an existing recognizer.
func NewWithClient(client Recognizer, cfg Config) *Adapter {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = DefaultConfig().LanguageCode
	}
	return &Adapter{client: client, cfg: cfg}
}

func (a *Adapter) Name() string { return "google" }

// Transcribe sends the whole file inline and joins the top alternative of every result.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (string, error) {
	encoding, err := a.encodingFor(audioPath)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: a.cfg.SampleRateHz,
			LanguageCode:    a.cfg.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google recognize: %w", err)
	}

	parts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(r.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Supports reports whether filename maps to an encoding Recognize accepts.
func (a *Adapter) Supports(filename string) bool {
	_, err := a.encodingFor(filename)
	return err == nil
}

func (a *Adapter) encodingFor(audioPath string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	if a.cfg.AudioEncoding != "" {
		return parseAudioEncoding(a.cfg.AudioEncoding), nil
	}
	ext := strings.ToLower(filepath.Ext(audioPath))
	switch ext {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case ".flac":
		return speechpb.RecognitionConfig_FLAC, nil
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case ".webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("%w: google cannot decode %q", stt.ErrUnsupportedFormat, ext)
	}
}

// parseAudioEncoding converts a string to the Google AudioEncoding enum.
func parseAudioEncoding(encoding string) speechpb.RecognitionConfig_AudioEncoding {
	switch encoding {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
