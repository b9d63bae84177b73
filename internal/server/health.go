package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// QueuePinger reports whether the job queue is reachable.
type QueuePinger interface {
	Ping(ctx context.Context) error
}

// HealthReport is the /health body.
type HealthReport struct {
	Status    string `json:"status"`
	Queue     string `json:"queue"`
	LLMAPIKey string `json:"llm_api_key"`
}

// HealthChecker feeds both the HTTP endpoint and the gRPC health service.
type HealthChecker struct {
	queue         QueuePinger
	llmConfigured bool
	grpc          *health.Server
	logger        *slog.Logger
}

func NewHealthChecker(queue QueuePinger, llmConfigured bool, logger *slog.Logger) *HealthChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthChecker{
		queue:         queue,
		llmConfigured: llmConfigured,
		grpc:          health.NewServer(),
		logger:        logger,
	}
}

// Check pings the queue and reports the LLM credential. It also updates
// the gRPC serving status, which follows queue reachability only.
func (h *HealthChecker) Check(ctx context.Context) HealthReport {
	report := HealthReport{Status: "ok", Queue: "connected", LLMAPIKey: "configured"}
	serving := healthpb.HealthCheckResponse_SERVING

	if err := h.queue.Ping(ctx); err != nil {
		h.logger.Warn("health: queue unreachable", "error", err)
		report.Status = "degraded"
		report.Queue = "disconnected"
		serving = healthpb.HealthCheckResponse_NOT_SERVING
	}
	if !h.llmConfigured {
		report.Status = "degraded"
		report.LLMAPIKey = "not_configured"
	}
	h.grpc.SetServingStatus("", serving)
	return report
}

// Watch re-runs Check every interval until ctx is done.
func (h *HealthChecker) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		h.Check(ctx)
		select {
		case <-ctx.Done():
			h.grpc.Shutdown()
			return
		case <-t.C:
		}
	}
}

// NewGRPCServer returns a gRPC server exposing grpc.health.v1 and reflection.
func (h *HealthChecker) NewGRPCServer() *grpc.Server {
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, h.grpc)
	// Reflection for grpcurl
	reflection.Register(gs)
	return gs
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.health.Check(r.Context()))
}
