// Package metrics exposes the Prometheus metrics endpoint on a dedicated
// listener, kept separate from the API listener so that scrapes are never
// affected by API middleware or draining.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves /metrics from its own http.Server.
type MetricsServer struct {
	srv *http.Server
}

// New builds a metrics server for the given namespace and listen address.
// Process collectors are registered on the default registry so every binary
// exports Go runtime metrics alongside its own.
func New(namespace string, listenAddr string) (*MetricsServer, error) {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	} {
		if err := prometheus.Register(c); err != nil {
			// Tests run several servers in one process. The first
			// registration wins, duplicates are fine.
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
