package grpcapi

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"ai-speech-coach-service/internal/observability/metrics"
	"ai-speech-coach-service/internal/report"
	"ai-speech-coach-service/internal/service/analysis"
	"ai-speech-coach-service/internal/service/feedback"
	"ai-speech-coach-service/internal/service/transcription"
)

type fakeAnalyzer struct {
	req analysis.Request
	err error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Analysis, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.Analysis{
		ID:            "a-1",
		Purpose:       feedback.PurposeJobInterview,
		Filename:      req.Filename,
		Transcription: &transcription.Result{Text: "hello there", WordCount: 2, DurationMinutes: 0.01, WPM: 200},
		Feedback:      &feedback.Report{ToneFeedback: "tone", LogicFeedback: "logic"},
		Pace:          report.AssessPace(200),
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func startServer(t *testing.T, a Analyzer) (*Server, *grpc.ClientConn, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	srv := New(a, m)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return srv, conn, m
}

func analyzeRequest(t *testing.T, purpose, filename, audio string) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(map[string]interface{}{
		"purpose":  purpose,
		"filename": filename,
		"audio":    audio,
	})
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestHealth_FollowsServingState(t *testing.T) {
	srv, conn, _ := startServer(t, &fakeAnalyzer{})
	client := healthpb.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	check := func(want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if resp.GetStatus() != want {
			t.Errorf("expected %s, got %s", want, resp.GetStatus())
		}
	}

	check(healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServing(true)
	check(healthpb.HealthCheckResponse_SERVING)
	srv.SetServing(false)
	check(healthpb.HealthCheckResponse_NOT_SERVING)
}

func TestAnalyze_Success(t *testing.T) {
	fa := &fakeAnalyzer{}
	_, conn, m := startServer(t, fa)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	audio := base64.StdEncoding.EncodeToString([]byte("RIFFdata"))
	resp := new(structpb.Struct)
	err := conn.Invoke(ctx, AnalyzeMethod, analyzeRequest(t, "job-interview", "answer.wav", audio), resp)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if string(fa.req.Audio) != "RIFFdata" || fa.req.Filename != "answer.wav" || fa.req.Purpose != "job-interview" {
		t.Errorf("unexpected analyzer request %+v", fa.req)
	}
	fields := resp.GetFields()
	if fields["id"].GetStringValue() != "a-1" {
		t.Errorf("expected id a-1, got %v", fields["id"])
	}
	wpm := fields["transcription"].GetStructValue().GetFields()["wpm"].GetNumberValue()
	if wpm != 200 {
		t.Errorf("expected wpm 200, got %v", wpm)
	}
	if fields["markdown"].GetStringValue() == "" {
		t.Error("expected markdown report")
	}
	if got := testutil.ToFloat64(m.GRPCRequests.WithLabelValues(AnalyzeMethod, codes.OK.String())); got != 1 {
		t.Errorf("expected 1 recorded call, got %v", got)
	}
}

func TestAnalyze_BadAudioEncoding(t *testing.T) {
	fa := &fakeAnalyzer{}
	_, conn, _ := startServer(t, fa)

	err := conn.Invoke(context.Background(), AnalyzeMethod, analyzeRequest(t, "job-interview", "a.wav", "%%%"), new(structpb.Struct))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
	if fa.req.Filename != "" {
		t.Error("analyzer must not be called")
	}
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid purpose", analysis.ErrInvalidPurpose, codes.InvalidArgument},
		{"invalid input", &transcription.Error{Reason: transcription.ReasonInvalidInput, Err: transcription.ErrEmptyAudio}, codes.InvalidArgument},
		{"provider", &transcription.Error{Reason: transcription.ReasonProvider, Err: errors.New("down")}, codes.Unavailable},
		{"feedback", &feedback.Error{Report: feedback.ReportTone, Err: errors.New("down")}, codes.Unavailable},
		{"canceled", &feedback.Error{Report: feedback.ReportTone, Err: context.Canceled}, codes.Canceled},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"other", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := codeFor(tt.err); got != tt.want {
				t.Errorf("codeFor(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestAnalyze_ErrorMapsToStatus(t *testing.T) {
	_, conn, _ := startServer(t, &fakeAnalyzer{err: analysis.ErrInvalidPurpose})

	audio := base64.StdEncoding.EncodeToString([]byte("x"))
	err := conn.Invoke(context.Background(), AnalyzeMethod, analyzeRequest(t, "karaoke", "a.wav", audio), new(structpb.Struct))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}
