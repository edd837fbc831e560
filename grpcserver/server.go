// Package grpcserver runs the gRPC side of the service. It serves the
// standard grpc.health.v1 API, backed by periodic dependency checks.
package grpcserver

import (
	"context"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported alongside the overall "" entry.
const ServiceName = "minidrop.Marketplace"

// Check reports whether a dependency is usable.
type Check = func(ctx context.Context) error

type Server struct {
	srv      *grpc.Server
	health   *health.Server
	checks   map[string]Check
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	failed map[string]bool
}

func New(checks map[string]Check, interval time.Duration, logger *zap.Logger) *Server {
	s := &Server{
		health:   health.NewServer(),
		checks:   checks,
		interval: interval,
		logger:   logger,
		failed:   make(map[string]bool),
	}
	s.srv = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor),
	)
	grpc_health_v1.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)
	return s
}

// Serve runs the dependency checks and serves lis until Stop is called.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.CheckNow(ctx)
	go s.watch(ctx)
	s.logger.Info("gRPC server started", zap.String("addr", lis.Addr().String()))
	return s.srv.Serve(lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckNow(ctx)
		}
	}
}

// CheckNow runs every check once and publishes the result.
func (s *Server) CheckNow(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	serving := true
	for name, check := range s.checks {
		err := check(ctx)
		s.mu.Lock()
		wasFailed := s.failed[name]
		s.failed[name] = err != nil
		s.mu.Unlock()

		if err != nil {
			serving = false
			if !wasFailed {
				s.logger.Warn("Dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			}
		} else if wasFailed {
			s.logger.Info("Dependency recovered", zap.String("dependency", name))
		}
	}

	st := grpc_health_v1.HealthCheckResponse_SERVING
	if !serving {
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *Server) recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("gRPC panic recovered",
				zap.String("method", info.FullMethod),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("gRPC request",
		zap.String("method", info.FullMethod),
		zap.Duration("duration", time.Since(start)),
		zap.String("code", status.Code(err).String()),
	)
	return resp, err
}
