// Package main provides the mentor API server entry point.
package main

import (
	"crypto/subtle"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/majormentor/major-mentor-go/internal/ctxutil"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/metrics"
	"github.com/majormentor/major-mentor-go/internal/ratelimit"
)

// securityHeadersMiddleware adds security headers to all responses
// Reference: https://gin-gonic.com/en/docs/examples/security-headers
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// requestIDMiddleware assigns each request an ID for log correlation.
// An incoming X-Request-ID header is honored so upstream proxies can trace.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		entry := log.WithField("method", method).
			WithField("path", path).
			WithField("status", status).
			WithField("duration_ms", duration.Milliseconds()).
			WithField("ip", c.ClientIP())
		if requestID, ok := ctxutil.GetRequestID(c.Request.Context()); ok {
			entry = entry.WithField("request_id", requestID)
		}

		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Error("Request completed with errors")
		} else {
			switch {
			case status >= 500:
				entry.Error("Request failed")
			case status >= 400:
				entry.Warn("Request completed with client error")
			default:
				entry.Debug("Request completed")
			}
		}
	}
}

// sentryMiddleware reports handler panics and binds a per-request hub so
// captures carry request context. Repanic keeps gin.Recovery in charge of
// the response.
func sentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// globalRateLimitMiddleware enforces the process-wide request ceiling.
func globalRateLimitMiddleware(limiter *ratelimit.Limiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			if m != nil {
				m.RecordRateLimiterDrop("global")
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}

// sessionRateLimitMiddleware throttles turns per session ID.
func sessionRateLimitMiddleware(limiter *ratelimit.PerKeyLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id != "" && !limiter.Allow(id) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "session rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// metricsAuthMiddleware protects /metrics with HTTP Basic Auth.
// An empty password disables the check.
func metricsAuthMiddleware(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if password == "" {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
