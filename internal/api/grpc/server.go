package grpc

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-checked service name of the leader.
const ServiceName = "relnotes.Leader"

// Server exposes the standard gRPC health service for the leader
type Server struct {
	health *health.Server
	logger *zap.Logger
}

// NewServer creates a new gRPC server. It reports NOT_SERVING until told
// otherwise.
func NewServer(logger *zap.Logger) *Server {
	s := &Server{
		health: health.NewServer(),
		logger: logger,
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Register registers the server with a gRPC server
func (s *Server) Register(grpcServer *grpc.Server) {
	healthpb.RegisterHealthServer(grpcServer, s.health)
}

// SetServing flips the overall and per-service status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.setStatus(status)
}

// Shutdown reports NOT_SERVING permanently, ignoring later updates.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.logger.Info("health service shut down")
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
