package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Start runs the prometheus metrics server in the background.
func Start(logger *logrus.Logger, addr string, reg *prometheus.Registry) {
	svr := Server(logger, addr, reg)

	go func() {
		err := svr.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("prometheus server got err: %v", err)
		}
	}()
}

// Server builds the metrics http server for the given registry.
func Server(logger *logrus.Logger, addr string, reg *prometheus.Registry) *http.Server {
	reg.MustRegister(collectors.NewBuildInfoCollector())
	reg.MustRegister(collectors.NewGoCollector())

	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(
		reg,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))

	logger.Infof("Successfully started Prometheus metrics server at %s", addr)

	return &http.Server{Addr: addr, Handler: mux}
}
