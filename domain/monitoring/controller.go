package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akeren/archive-waitlist/config/router"
	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/pkg/circuitbreaker"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is satisfied by the cache and the object store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// breakerReporter is implemented by object stores guarded by a circuit breaker.
type breakerReporter interface {
	BreakerState() circuitbreaker.CircuitState
}

type HealthStatus struct {
	Status         string `json:"status"`                    // ok | degraded
	Database       int    `json:"database"`                  // 1 = healthy, 0 = unhealthy
	Cache          int    `json:"cache"`                     // 1 = healthy, 0 = unhealthy/not configured
	Storage        int    `json:"storage"`                   // 1 = healthy, 0 = unhealthy
	StorageCircuit string `json:"storage_circuit,omitempty"` // closed | open | half_open
	Uptime         int    `json:"uptime"`                    // seconds
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Pinger
	storage   Pinger
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Pinger, storage Pinger) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		storage:   storage,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			routerService.AddGetHandler(controller, "", ctrl.monitor)
			routerService.AddGetHandler(controller, "health", ctrl.healthCheck)

			probes := ctrl.newProbes(routerService.MetricsRegisterer())
			routerService.AddHTTPGetHandler(controller, "live", probes.LiveEndpoint())
			routerService.AddHTTPGetHandler(controller, "ready", probes.ReadyEndpoint())
		},
	)
}

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	logger := router.GetLogger(c)
	status := ctrl.performHealthChecks(c.Request.Context(), logger)

	return router.OKResult(status, "archive-waitlist health check completed").NoStore()
}

func (ctrl *MonitoringController) monitor(*router.RequestContext) *router.ServiceResult {
	return &router.ServiceResult{
		StatusCode: http.StatusOK,
		Data:       "Monitoring endpoint is operational.",
		Message:    "Monitoring successful",
	}
}

// performHealthChecks pings every dependency concurrently; a slow one costs
// at most healthCheckTimeout.
func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatus{Uptime: int(time.Since(ctrl.startTime).Seconds())}

	var g errgroup.Group
	g.Go(func() error {
		status.Database = checkPinger(ctx, "Database", databasePinger{db: ctrl.db}, logger)
		return nil
	})
	g.Go(func() error {
		status.Cache = checkPinger(ctx, "Cache", ctrl.cache, logger)
		return nil
	})
	g.Go(func() error {
		status.Storage = checkPinger(ctx, "Storage", ctrl.storage, logger)
		return nil
	})
	_ = g.Wait()

	if reporter, ok := ctrl.storage.(breakerReporter); ok {
		status.StorageCircuit = reporter.BreakerState().String()
	}

	// The cache is optional, so only the database and the store decide.
	status.Status = "ok"
	if status.Database == 0 || status.Storage == 0 {
		status.Status = "degraded"
	}

	return status
}

func checkPinger(ctx context.Context, name string, pinger Pinger, logger *log.Logger) int {
	if pinger == nil {
		logger.Debug(name + " not configured, health check skipped")
		return 0
	}

	if err := pinger.Ping(ctx); err != nil {
		logger.Error(name+" health check failed", "error", err)
		return 0
	}

	return 1
}

type databasePinger struct {
	db *gorm.DB
}

func (p databasePinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
