// Command coachclient uploads a speech recording to the coach service and
// prints the resulting report.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	grpcapi "ai-speech-coach-service/internal/api/grpc"
)

func main() {
	audioFile := flag.String("audio", "", "Path to a wav, mp3 or m4a recording")
	purpose := flag.String("purpose", "general team presentation", "Speech purpose label or slug")
	httpAddr := flag.String("http", "http://localhost:8080", "HTTP API base URL")
	grpcAddr := flag.String("grpc", "", "gRPC server address; when set the HTTP API is not used")
	asJSON := flag.Bool("json", false, "Print the JSON analysis instead of the markdown report")
	out := flag.String("out", "", "Write the report to this file instead of stdout")
	timeout := flag.Duration("timeout", 5*time.Minute, "Request timeout")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *audioFile == "" {
		log.Fatal().Msg("-audio is required")
	}
	data, err := os.ReadFile(*audioFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read audio file")
	}
	filename := filepath.Base(*audioFile)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Info().
		Str("file", filename).
		Int("bytes", len(data)).
		Str("purpose", *purpose).
		Msg("Submitting speech for analysis")

	start := time.Now()
	var body []byte
	if *grpcAddr != "" {
		body, err = analyzeGRPC(ctx, *grpcAddr, data, filename, *purpose, *asJSON)
	} else {
		body, err = analyzeHTTP(ctx, *httpAddr, data, filename, *purpose, *asJSON)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("Analysis completed")

	if *out == "" {
		_, _ = os.Stdout.Write(body)
		return
	}
	if err := os.WriteFile(*out, body, 0o644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}
	log.Info().Str("path", *out).Msg("Report written")
}

func analyzeHTTP(ctx context.Context, baseURL string, data []byte, filename, purpose string, asJSON bool) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", purpose); err != nil {
		return nil, err
	}
	fw, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := baseURL + "/v1/analyses"
	if !asJSON {
		url += "?format=markdown"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return body, nil
}

func analyzeGRPC(ctx context.Context, addr string, data []byte, filename, purpose string, asJSON bool) ([]byte, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	req, err := structpb.NewStruct(map[string]interface{}{
		"purpose":  purpose,
		"filename": filename,
		"audio":    base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, err
	}
	resp := new(structpb.Struct)
	if err := conn.Invoke(ctx, grpcapi.AnalyzeMethod, req, resp); err != nil {
		return nil, err
	}

	if asJSON {
		delete(resp.Fields, "markdown")
		return protojson.MarshalOptions{Multiline: true}.Marshal(resp)
	}
	return []byte(resp.GetFields()["markdown"].GetStringValue()), nil
}
