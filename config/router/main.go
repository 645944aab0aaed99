package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/pkg/constants"
	"github.com/akeren/archive-waitlist/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterService struct {
	engine         *gin.Engine
	server         *http.Server
	logger         *log.Logger
	registry       *prometheus.Registry
	requestTimeout time.Duration

	routes map[routeKey]*RESTController
}

type RouterConfig struct {
	RequestTimeout time.Duration
	// AllowedOrigins is the CORS allow list; empty denies cross-origin requests and "*" allows any origin without credentials.
	AllowedOrigins []string
	// Middlewares run after correlation and logging, before any handler.
	Middlewares []MiddlewareFunc
}

func CreateRouterService(logger *log.Logger, routerConfig *RouterConfig) *RouterService {
	if mode := utils.GetEnvTrimmed("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
		logger.Info("Gin mode set", "mode", mode)
	}

	timeout := routerConfig.RequestTimeout
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true
	engine.Use(gin.Recovery())

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	applyTrustedProxies(engine, logger)

	rs := &RouterService{
		engine:         engine,
		logger:         logger,
		registry:       prometheus.NewRegistry(),
		requestTimeout: timeout,
		routes:         make(map[routeKey]*RESTController),
	}

	rs.mountMetrics()

	engine.Use(securityHeaders(hstsHeader()), limitRequestBody(maxRequestBodyBytes()))
	if corsHandler := rs.corsMiddleware(routerConfig.AllowedOrigins); corsHandler != nil {
		engine.Use(corsHandler)
	}
	engine.Use(
		rs.timeoutMiddleware(),
		rs.requestContextMiddleware(),
		rs.requestLoggingMiddleware(),
	)

	for _, mw := range routerConfig.Middlewares {
		if mw != nil {
			engine.Use(mw)
		}
	}

	engine.NoRoute(func(c *gin.Context) { abortWith(c, http.StatusNotFound, "Route not found") })
	engine.NoMethod(func(c *gin.Context) { abortWith(c, http.StatusMethodNotAllowed, "Method not allowed") })

	rs.server = &http.Server{
		Addr:    ":8080",
		Handler: engine,

		// Handlers are not run in a separate goroutine, so these bound the
		// time a request can hold the connection.
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized", "request_timeout", timeout)
	return rs
}

// applyTrustedProxies trusts only the proxies listed in TRUSTED_PROXIES, so
// ClientIP ignores a spoofed X-Forwarded-For by default. "*" trusts everything.
func applyTrustedProxies(engine *gin.Engine, logger *log.Logger) {
	proxies := trustedProxies(utils.GetEnvTrimmed("TRUSTED_PROXIES"))

	if err := engine.SetTrustedProxies(proxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; trusting no proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
		return
	}
	if proxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}
}

func trustedProxies(raw string) []string {
	if raw == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}
	if proxies := splitList(raw); len(proxies) > 0 {
		return proxies
	}
	return nil
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

// MetricsRegisterer is where domain packages register their collectors so
// they are exported on /metrics next to the HTTP metrics.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	return routerService.registry
}

// ServeStatic exposes dir read-only under urlPath. Files are sent as
// sandboxed downloads since the directory holds user uploads.
func (routerService *RouterService) ServeStatic(urlPath, dir string) {
	routerService.engine.Group(urlPath, uploadHeaders()).Static("/", dir)
	routerService.logger.Info("Static directory mounted", "path", urlPath, "dir", dir)
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
		"handlers", controller.handlerCount,
	)
}

// RunHTTPServer blocks until the server stops. A graceful Shutdown is not an error.
func (routerService *RouterService) RunHTTPServer() error {
	routerService.server.Addr = ":" + utils.GetEnvTrimmedOrDefault("APP_PORT", "8080")
	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	if err := routerService.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		routerService.logger.Error("HTTP server stopped", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}
