package infrastructure

import (
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported by the health service for the bot.
const ServiceName = "steamstalker.Bot"

// HealthServer exposes the standard gRPC health service.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
}

// NewHealthServer listens on address. Every service starts NOT_SERVING.
func NewHealthServer(address string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &HealthServer{
		grpcServer: grpcServer,
		health:     healthServer,
		listener:   listener,
	}, nil
}

// Addr is the address the server listens on.
func (h *HealthServer) Addr() net.Addr {
	return h.listener.Addr()
}

// Serve blocks until Stop is called.
func (h *HealthServer) Serve() error {
	if err := h.grpcServer.Serve(h.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("health server stopped: %w", err)
	}
	return nil
}

// SetServing flips the overall and bot service status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Stop marks every service as not serving and stops the server gracefully.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpcServer.GracefulStop()
}
