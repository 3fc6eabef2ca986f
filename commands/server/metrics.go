package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/libs/log"
)

// MetricsService serves the prometheus metrics of the process.
type MetricsService struct {
	*http.Server
	logger log.Logger
}

// NewMetricsService creates the service. An empty address disables it.
func NewMetricsService(addr string, logger log.Logger) *MetricsService {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &MetricsService{
		Server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("module", "metrics"),
	}
}

// Start runs http service with the exposed endpoint on the configured
// address. It blocks until the service is shut down.
func (ms *MetricsService) Start() {
	if ms.Addr == "" {
		ms.logger.Info("service hasn't started since it's disabled")
		return
	}
	ms.logger.Info("service is running", "endpoint", ms.Addr)
	err := ms.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		ms.logger.Error("service couldn't start on configured address", "err", err)
	}
}

// ShutDown stops the service.
func (ms *MetricsService) ShutDown() {
	if ms.Addr == "" {
		return
	}
	ms.logger.Info("shutting down service", "endpoint", ms.Addr)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ms.Shutdown(ctx); err != nil {
		ms.logger.Error("can't shut service down", "err", err)
	}
}
