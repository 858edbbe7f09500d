// Package main provides the mentor API server entry point.
package main

import (
	"context"
	"time"

	"github.com/majormentor/major-mentor-go/internal/catalog"
	"github.com/majormentor/major-mentor-go/internal/config"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/metrics"
	"github.com/majormentor/major-mentor-go/internal/retriever"
	"github.com/majormentor/major-mentor-go/internal/session"
)

// updateGaugeMetrics periodically refreshes catalog and session gauges.
func updateGaugeMetrics(ctx context.Context, hot *catalog.HotSwapDB, sessions *session.Manager, bm25 *retriever.BM25Index, m *metrics.Metrics, log *logger.Logger) {
	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	// Run initial update immediately
	performGaugeUpdate(ctx, hot, sessions, bm25, m, log)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			performGaugeUpdate(ctx, hot, sessions, bm25, m, log)
		}
	}
}

// performGaugeUpdate refreshes the gauges once.
func performGaugeUpdate(ctx context.Context, hot *catalog.HotSwapDB, sessions *session.Manager, bm25 *retriever.BM25Index, m *metrics.Metrics, log *logger.Logger) {
	db := hot.DB()

	if count, err := db.CountUniversities(ctx); err == nil {
		m.SetCatalogEntries("universities", count)
	} else {
		log.WithError(err).Debug("Failed to count universities for metrics")
	}
	if count, err := db.CountDepartments(ctx); err == nil {
		m.SetCatalogEntries("departments", count)
	} else {
		log.WithError(err).Debug("Failed to count departments for metrics")
	}
	if count, err := db.CountCourses(ctx); err == nil {
		m.SetCatalogEntries("courses", count)
	} else {
		log.WithError(err).Debug("Failed to count courses for metrics")
	}

	m.SetActiveSessions(sessions.ActiveCount())

	if bm25 != nil && bm25.IsEnabled() {
		m.SetCatalogEntries("bm25_documents", bm25.Count())
	}
}
