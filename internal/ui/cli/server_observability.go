package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"archlens/internal/core/app"
	"archlens/internal/shared/version"
)

// ObservabilityServer exposes /metrics and /health while the CLI runs,
// mainly useful in watch mode.
type ObservabilityServer struct {
	addr   string
	app    *app.App
	server *http.Server
}

type healthStatus struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	Project    string    `json:"project"`
	AnalyzedAt time.Time `json:"analyzed_at,omitempty"`
	Modules    int       `json:"modules,omitempty"`
	Cycles     int       `json:"cycles,omitempty"`
}

func NewObservabilityServer(addr string, application *app.App) *ObservabilityServer {
	return &ObservabilityServer{addr: addr, app: application}
}

func (s *ObservabilityServer) Start() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{
			Status:  "up",
			Version: version.Version,
			Project: s.app.ProjectName(),
		}
		if latest, ok := s.app.Analyzer.Latest(); ok {
			status.AnalyzedAt = latest.CreatedAt
			status.Modules = latest.ModuleCount
			status.Cycles = len(latest.Cycles)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{Addr: s.addr, Handler: mux}
	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
