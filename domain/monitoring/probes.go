package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	probeTimeout       = 2 * time.Second
	maxGoroutines      = 10000
	probeMetricsPrefix = "archive_waitlist"
)

type probes struct {
	handler healthcheck.Handler
}

// newProbes builds the /live and /ready handlers. Readiness covers the
// database and the object store; the cache is optional and left out.
func (ctrl *MonitoringController) newProbes(reg prometheus.Registerer) *probes {
	var handler healthcheck.Handler
	if reg != nil {
		handler = healthcheck.NewMetricsHandler(reg, probeMetricsPrefix)
	} else {
		handler = healthcheck.NewHandler()
	}

	handler.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(maxGoroutines))

	if sqlDB, err := ctrl.db.DB(); err == nil {
		handler.AddReadinessCheck("database", healthcheck.DatabasePingCheck(sqlDB, probeTimeout))
	} else {
		handler.AddReadinessCheck("database", func() error { return err })
	}

	if ctrl.storage != nil {
		handler.AddReadinessCheck("object-store", pingCheck(ctrl.storage))
	}

	return &probes{handler: handler}
}

func pingCheck(p Pinger) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		return p.Ping(ctx)
	}
}

func (p *probes) LiveEndpoint() http.Handler {
	return http.HandlerFunc(p.handler.LiveEndpoint)
}

func (p *probes) ReadyEndpoint() http.Handler {
	return http.HandlerFunc(p.handler.ReadyEndpoint)
}
