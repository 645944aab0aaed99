package router

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/pkg/constants"
	"github.com/akeren/archive-waitlist/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const correlationHeader = "X-Correlation-ID"

// abortWith ends the chain with an envelope carrying no data.
func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResult(status, message, nil).ToJSON())
}

// requestContextMiddleware stores the correlation id and a logger tagged with
// it on the request context, echoing the id back to the caller.
func (routerService *RouterService) requestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(correlationHeader))
		if id == "" {
			id = log.GenerateCorrelationID()
		}
		c.Header(correlationHeader, id)

		ctx := context.WithValue(c.Request.Context(), log.CorrelatedIDKey, id)
		ctx = context.WithValue(ctx, log.LoggerKeyForContext, routerService.logger.With(string(log.CorrelatedIDKey), id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// quietPaths are polled by orchestrators and scrapers; they log at debug.
var quietPaths = map[string]bool{"/live": true, "/ready": true, "/metrics": true}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Read after Next so the user_id added by the session middleware is included.
		logger := log.GetLoggerInstanceFromContext(c.Request.Context(), routerService.logger)
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes_in", c.Request.ContentLength,
			"remote_addr", c.ClientIP(),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", attrs...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", attrs...)
		case quietPaths[c.Request.URL.Path]:
			logger.Debug("HTTP request", attrs...)
		default:
			logger.Info("HTTP request", attrs...)
		}
	}
}

// securityHeaders sets the fixed hardening headers and, when hsts is non-empty,
// Strict-Transport-Security on requests that arrived over HTTPS.
func securityHeaders(hsts string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if hsts != "" && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// inlineUploadTypes may render in the browser; every other upload is served
// as application/octet-stream.
var inlineUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/gif":       true,
	"image/jpeg":      true,
	"image/png":       true,
	"text/plain":      true,
}

// uploadHeaders makes user supplied files download-only and sandboxed, so an
// uploaded page cannot run script on this origin.
func uploadHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Disposition", "attachment")
		h.Set("Content-Security-Policy", "sandbox; default-src 'none'")

		mediaType, _, _ := strings.Cut(mime.TypeByExtension(path.Ext(c.Request.URL.Path)), ";")
		if !inlineUploadTypes[strings.TrimSpace(mediaType)] {
			h.Set("Content-Type", "application/octet-stream")
		}
		c.Next()
	}
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

// hstsHeader returns the Strict-Transport-Security value, or "" when HSTS is
// off. It is on by default in production.
func hstsHeader() string {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	if !utils.GetEnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod") {
		return ""
	}

	maxAge := utils.GetEnvInt64("HSTS_MAX_AGE", 365*24*60*60)
	if maxAge <= 0 {
		maxAge = 365 * 24 * 60 * 60
	}

	value := fmt.Sprintf("max-age=%d", maxAge)
	if utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true) {
		value += "; includeSubDomains"
	}
	return value
}

// limitRequestBody rejects declared oversize bodies up front and caps the
// reader for chunked ones.
func limitRequestBody(maxBytes int64) gin.HandlerFunc {
	tooLarge := fmt.Sprintf("Request payload too large (limit %d bytes)", maxBytes)

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWith(c, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func maxRequestBodyBytes() int64 {
	return utils.GetEnvInt64("MAX_REQUEST_BODY_BYTES", constants.DefaultMaxRequestBodyBytes)
}

func (routerService *RouterService) corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	if len(allowedOrigins) == 0 {
		routerService.logger.Warn("CORS_ALLOWED_ORIGIN not set, cross-origin requests will be denied")
		return nil
	}

	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", correlationHeader, "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", correlationHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// Browsers refuse credentials with a wildcard origin.
	if slices.Contains(allowedOrigins, "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}

	routerService.logger.Info("CORS enabled", "allowed_origins", allowedOrigins)
	return cors.New(corsConfig)
}

// ParseAllowedOrigins splits a comma separated CORS_ALLOWED_ORIGIN value.
func ParseAllowedOrigins(raw string) []string {
	return splitList(raw)
}

func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// timeoutMiddleware puts a deadline on the request context. Handlers run on
// the request goroutine, since gin.Context is not safe for concurrent use; the
// http.Server timeouts bound a handler that ignores its context.
func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), routerService.requestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			log.GetLoggerInstanceFromContext(c.Request.Context(), routerService.logger).
				Warn("Request deadline exceeded", "timeout", routerService.requestTimeout)
			abortWith(c, http.StatusRequestTimeout, "Request timeout")
		}
	}
}
