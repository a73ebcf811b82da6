package grpcserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"motorhub/internal/motor"
	"motorhub/pkg/motorid"
)

type Server struct {
	Motors *motor.Repo
	Log    zerolog.Logger
}

func NewServer(motors *motor.Repo, log zerolog.Logger) *Server {
	return &Server{Motors: motors, Log: log}
}

// New builds a grpc.Server with the motor service and request logging.
func New(srv *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(LoggingInterceptor(srv.Log)))
	gs := grpc.NewServer(opts...)
	RegisterMotorServiceServer(gs, srv)
	return gs
}

func (s *Server) ParseDescription(ctx context.Context, req *ParseRequest) (*ParseResponse, error) {
	if req == nil || strings.TrimSpace(req.Description) == "" {
		return nil, status.Error(codes.InvalidArgument, "description required")
	}
	return &ParseResponse{Identity: motor.Identify(req.Description, req.Features...)}, nil
}

func (s *Server) GetMotor(ctx context.Context, req *GetMotorRequest) (*GetMotorResponse, error) {
	if req == nil || strings.TrimSpace(req.Key) == "" {
		return nil, status.Error(codes.InvalidArgument, "key required")
	}

	m, err := s.Motors.GetByKey(ctx, strings.TrimSpace(req.Key))
	if errors.Is(err, motor.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "not found")
	}
	if err != nil {
		s.Log.Error().Err(err).Str("key", req.Key).Msg("get motor")
		return nil, status.Error(codes.Internal, "get failed")
	}
	return &GetMotorResponse{Motor: *m}, nil
}

func (s *Server) ListMotors(ctx context.Context, req *ListMotorsRequest) (*ListMotorsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	q := motor.ListQuery{
		Q:       strings.TrimSpace(req.Q),
		MinHP:   req.MinHP,
		MaxHP:   req.MaxHP,
		InStock: req.InStock,
		Limit:   int(req.Limit),
		Offset:  int(req.Offset),
	}
	if req.Family != "" {
		f, ok := motorid.ParseMotorFamily(req.Family)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "unknown family")
		}
		q.MotorFamily = string(f)
	}

	total, err := s.Motors.Count(ctx, q)
	if err != nil {
		s.Log.Error().Err(err).Msg("count motors")
		return nil, status.Error(codes.Internal, "count failed")
	}
	items, err := s.Motors.List(ctx, q)
	if err != nil {
		s.Log.Error().Err(err).Msg("list motors")
		return nil, status.Error(codes.Internal, "list failed")
	}

	return &ListMotorsResponse{
		Total:  int32(total),
		Limit:  int32(q.PageLimit()),
		Offset: req.Offset,
		Items:  items,
	}, nil
}

// LoggingInterceptor logs one line per unary call.
func LoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		evt := log.Info()
		if err != nil && status.Code(err) == codes.Internal {
			evt = log.Error()
		}
		evt.
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("latency", time.Since(start)).
			Msg("grpc request")
		return resp, err
	}
}
