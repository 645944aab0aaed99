package session

import (
	"context"
	"errors"

	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/gin-gonic/gin"
)

// Middleware resolves the caller's identity and stores it in the request
// context. It never rejects a request; operations decide what anonymous
// callers may do.
func Middleware(manager *Manager, cookie CookieConfig, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookie.TokenFromRequest(c.Request)
		if token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		identity, err := manager.Resolve(ctx, token)
		if err != nil {
			l := log.GetLoggerInstanceFromContext(ctx, logger)
			if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrSessionNotActive) {
				l.Debug("Ignoring session token", "reason", err)
			} else {
				l.Warn("Failed to resolve session", "error", err)
			}
			c.Next()
			return
		}

		ctx = WithIdentity(ctx, identity)
		requestLogger := log.GetLoggerInstanceFromContext(ctx, logger).With("user_id", identity.UserID)
		ctx = context.WithValue(ctx, log.LoggerKeyForContext, requestLogger)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
