// Package main provides the mentor API server entry point.
package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/majormentor/major-mentor-go/internal/buildinfo"
	"github.com/majormentor/major-mentor-go/internal/catalog"
	"github.com/majormentor/major-mentor-go/internal/config"
	"github.com/majormentor/major-mentor-go/internal/ctxutil"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/metrics"
	"github.com/majormentor/major-mentor-go/internal/ratelimit"
	"github.com/majormentor/major-mentor-go/internal/sentry"
	"github.com/majormentor/major-mentor-go/internal/session"
)

type routeDeps struct {
	cfg            *config.Config
	sessions       *session.Manager
	catalog        *catalog.HotSwapDB
	registry       *prometheus.Registry
	sessionLimiter *ratelimit.PerKeyLimiter
	metrics        *metrics.Metrics
	log            *logger.Logger
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, deps *routeDeps) {
	rootHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "major-mentor",
			"version": buildinfo.Version,
		})
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness probe. Never checks dependencies, only that the process runs.
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe checks the catalog and reports its size.
	readyHandler := func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := deps.catalog.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		db := deps.catalog.DB()
		universities, _ := db.CountUniversities(ctx)
		departments, _ := db.CountDepartments(ctx)
		courses, _ := db.CountCourses(ctx)

		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"catalog": gin.H{
				"universities": universities,
				"departments":  departments,
				"courses":      courses,
			},
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	api := router.Group("/api/v1")
	{
		api.POST("/sessions", deps.createSession)
		api.DELETE("/sessions/:id", deps.expireSession)
		api.POST("/sessions/:id/messages",
			sessionRateLimitMiddleware(deps.sessionLimiter),
			deps.postMessage)
	}

	router.GET("/metrics",
		metricsAuthMiddleware(deps.cfg.MetricsUsername, deps.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})))
}

func (d *routeDeps) createSession(c *gin.Context) {
	id := d.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

func (d *routeDeps) expireSession(c *gin.Context) {
	id := c.Param("id")
	if err := d.sessions.Expire(id); err != nil {
		d.writeError(c, err)
		return
	}
	d.sessionLimiter.Forget(id)
	c.Status(http.StatusNoContent)
}

func (d *routeDeps) postMessage(c *gin.Context) {
	id := c.Param("id")

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.recordHTTPError(c, http.StatusBadRequest)
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.TurnProcessing)
	defer cancel()
	ctx = ctxutil.WithSessionID(ctx, id)

	result, err := d.sessions.HandleUtterance(ctx, id, strings.TrimSpace(req.Text))
	if err != nil {
		d.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":     result.Answer,
		"unverified": result.Unverified,
		"steps":      result.Steps,
		"tool_calls": result.ToolCalls,
	})
}

// writeError maps domain errors to HTTP responses.
func (d *routeDeps) writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, domerrors.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domerrors.ErrTurnInProgress):
		status = http.StatusConflict
	case errors.Is(err, domerrors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domerrors.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, domerrors.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	default:
		status = http.StatusInternalServerError
	}

	d.recordHTTPError(c, status)
	if status >= 500 {
		sentry.CaptureExceptionWithContext(c.Request.Context(), err)
		d.log.WithError(err).WithField("path", c.Request.URL.Path).Error("Request handler failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (d *routeDeps) recordHTTPError(c *gin.Context, status int) {
	if d.metrics == nil {
		return
	}
	class := "4xx"
	if status >= 500 {
		class = "5xx"
	}
	d.metrics.RecordHTTPError(class, c.FullPath())
}
