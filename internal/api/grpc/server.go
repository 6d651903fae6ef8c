// Package grpcapi exposes the analysis pipeline and health checks over gRPC.
package grpcapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"ai-speech-coach-service/internal/observability"
	"ai-speech-coach-service/internal/observability/logging"
	"ai-speech-coach-service/internal/observability/metrics"
	"ai-speech-coach-service/internal/service/analysis"
	"ai-speech-coach-service/internal/service/feedback"
	"ai-speech-coach-service/internal/service/transcription"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "coach.v1.SpeechCoach"
	// AnalyzeMethod is the full method name of the Analyze RPC.
	AnalyzeMethod = "/" + ServiceName + "/Analyze"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Analysis, error)
}

// coachServer is the handler type registered for ServiceName.
type coachServer interface {
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*coachServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coach/v1/coach.proto",
}

func analyzeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(coachServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AnalyzeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(coachServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server wraps a grpc.Server with the coach service, health and reflection.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	analyzer Analyzer
	logger   zerolog.Logger
}

// New builds a server. The health status starts as NOT_SERVING.
func New(analyzer Analyzer, m *metrics.Metrics, opts ...grpc.ServerOption) *Server {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor(m)),
		grpc.ChainStreamInterceptor(observability.StreamServerInterceptor(m)),
	}, opts...)
	s := &Server{
		grpc:     grpc.NewServer(opts...),
		health:   health.NewServer(),
		analyzer: analyzer,
		logger:   logging.WithComponent("grpc"),
	}
	s.grpc.RegisterService(&serviceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.SetServing(false)
	return s
}

// SetServing flips the health status of the server and the coach service.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve blocks accepting connections on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("Starting gRPC server")
	return s.grpc.Serve(lis)
}

// GracefulStop marks the server not serving and waits for in-flight RPCs.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// Analyze expects string fields "purpose", "filename" and base64 "audio".
// The response carries the analysis as JSON fields plus a "markdown" report.
func (s *Server) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	audio, err := base64.StdEncoding.DecodeString(fields["audio"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "audio must be base64 encoded")
	}

	result, err := s.analyzer.Analyze(ctx, analysis.Request{
		Audio:    audio,
		Filename: fields["filename"].GetStringValue(),
		Purpose:  fields["purpose"].GetStringValue(),
	})
	if err != nil {
		return nil, status.Error(codeFor(err), err.Error())
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode analysis: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode analysis: %v", err)
	}
	out["markdown"] = result.Markdown()

	resp, err := structpb.NewStruct(out)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode analysis: %v", err)
	}
	return resp, nil
}

// codeFor maps analysis errors to gRPC status codes.
func codeFor(err error) codes.Code {
	var terr *transcription.Error
	var ferr *feedback.Error
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, analysis.ErrInvalidPurpose):
		return codes.InvalidArgument
	case errors.As(err, &terr):
		if terr.Reason == transcription.ReasonInvalidInput {
			return codes.InvalidArgument
		}
		return codes.Unavailable
	case errors.As(err, &ferr):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
