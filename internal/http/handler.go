package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"ai-speech-coach-service/internal/service/analysis"
	"ai-speech-coach-service/internal/service/feedback"
	"ai-speech-coach-service/internal/service/transcription"
)

// multipartOverhead covers form boundaries and the purpose field on top of the audio limit.
const multipartOverhead = 1 << 20

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Analysis, error)
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type purposeResponse struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

type handler struct {
	analyzer       Analyzer
	maxUploadBytes int64
}

// createAnalysis accepts multipart fields "purpose" and "audio".
func (h *handler) createAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with purpose and audio fields", "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file", "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read audio file", "")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("audio exceeds %d bytes", h.maxUploadBytes), "")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), analysis.Request{
		Audio:    data,
		Filename: hdr.Filename,
		Purpose:  r.FormValue("purpose"),
	})
	if err != nil {
		status, reason := statusFor(err)
		writeError(w, status, err.Error(), reason)
		return
	}

	if wantsMarkdown(r) {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, result.Markdown())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) listPurposes(w http.ResponseWriter, _ *http.Request) {
	out := make([]purposeResponse, 0, len(feedback.Purposes()))
	for _, p := range feedback.Purposes() {
		out = append(out, purposeResponse{Label: p.Label(), Slug: p.Slug()})
	}
	writeJSON(w, http.StatusOK, out)
}

// statusFor maps analysis errors to HTTP status codes.
func statusFor(err error) (int, string) {
	var terr *transcription.Error
	var ferr *feedback.Error
	switch {
	case errors.Is(err, analysis.ErrInvalidPurpose):
		return http.StatusBadRequest, "invalid_purpose"
	case errors.As(err, &terr):
		if terr.Reason == transcription.ReasonInvalidInput {
			return http.StatusBadRequest, string(terr.Reason)
		}
		return http.StatusBadGateway, string(terr.Reason)
	case errors.As(err, &ferr):
		return http.StatusBadGateway, "feedback_" + ferr.Report
	default:
		return http.StatusInternalServerError, ""
	}
}

func wantsMarkdown(r *http.Request) bool {
	if r.URL.Query().Get("format") == "markdown" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/markdown")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, errorResponse{Error: msg, Reason: reason})
}

// requestLogger logs one line per request with zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		evt := log.Info()
		if ww.Status() >= http.StatusInternalServerError {
			evt = log.Error()
		} else if ww.Status() >= http.StatusBadRequest {
			evt = log.Warn()
		}
		evt.
			Str("component", "http").
			Str("requestId", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}
