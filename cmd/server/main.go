// Package main provides the mentor API server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	chromem "github.com/philippgille/chromem-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/majormentor/major-mentor-go/internal/agent"
	"github.com/majormentor/major-mentor-go/internal/buildinfo"
	"github.com/majormentor/major-mentor-go/internal/catalog"
	"github.com/majormentor/major-mentor-go/internal/config"
	"github.com/majormentor/major-mentor-go/internal/genai"
	"github.com/majormentor/major-mentor-go/internal/ingest"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/metrics"
	"github.com/majormentor/major-mentor-go/internal/ratelimit"
	"github.com/majormentor/major-mentor-go/internal/resolver"
	"github.com/majormentor/major-mentor-go/internal/retriever"
	"github.com/majormentor/major-mentor-go/internal/sentry"
	"github.com/majormentor/major-mentor-go/internal/session"
	"github.com/majormentor/major-mentor-go/internal/snapshot"
	"github.com/majormentor/major-mentor-go/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log *logger.Logger
	if cfg.BetterstackToken != "" {
		log = logger.NewWithBetterstack(cfg.LogLevel, cfg.BetterstackToken, cfg.BetterstackEndpoint)
	} else {
		log = logger.New(cfg.LogLevel)
	}
	log.Info("Starting Major Mentor Server", "version", buildinfo.Version)

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.Environment,
		Release:     buildinfo.Version,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.Info("Sentry error tracking enabled")
		defer sentry.Flush(2 * time.Second)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.WithError(err).Fatal("Failed to create data directory")
	}

	// Prometheus registry with runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Canonical catalog with hot-swap support
	hot, err := catalog.NewHotSwapDB(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open catalog database")
	}
	defer func() { _ = hot.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Catalog database opened")

	// Embedding client backs both the vector store and the resolver
	embedClient := genai.NewEmbeddingClient(cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.EmbeddingRequestsPerMin)

	var embedFunc chromem.EmbeddingFunc
	var vectorDB *retriever.VectorDB
	if embedClient.IsConfigured() {
		embedFunc = embedClient.EmbeddingFunc()
		vectorDB, err = retriever.NewVectorDB(cfg.VectorStorePath(), embedFunc, log)
		if err != nil {
			log.WithError(err).Warn("Failed to create vector store, semantic retrieval degraded to lexical only")
			vectorDB = nil
		}
	} else {
		log.Info("Embedding client not configured, semantic retrieval degraded to lexical only")
	}

	bm25 := retriever.NewBM25Index(log)
	ret := retriever.New(vectorDB, bm25, log)
	res := resolver.New(embedFunc, log)

	// Build search indexes from whatever catalog content already exists
	if err := rebuildFromCatalog(context.Background(), hot, ret, res, log); err != nil {
		log.WithError(err).Warn("Failed to build indexes from existing catalog")
	}

	// Tool registry and agent controller
	registryTools := tools.NewRegistry(hot, res, ret, log)
	registryTools.SetMetrics(m)

	planner, err := genai.CreatePlanner(context.Background(), genai.LLMConfig{
		Gemini: genai.ProviderConfig{
			APIKey:        cfg.GeminiAPIKey,
			PlannerModels: plannerModels(cfg.GeminiPlannerModel, cfg.GeminiPlannerFallbackModel),
		},
		Groq: genai.ProviderConfig{
			APIKey:        cfg.GroqAPIKey,
			PlannerModels: plannerModels(cfg.GroqPlannerModel, cfg.GroqPlannerFallbackModel),
		},
		PrimaryProvider:  genai.Provider(cfg.LLMPrimaryProvider),
		FallbackProvider: genai.Provider(cfg.LLMFallbackProvider),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create planner")
	}
	if fp, ok := planner.(*genai.FallbackPlanner); ok {
		fp.SetMetrics(m)
	}

	controller := agent.New(planner, registryTools, log)
	controller.SetMetrics(m)

	// Session manager
	sessions := session.NewManager(controller, session.ManagerConfig{
		IdleTTL:    cfg.SessionIdleTTL,
		MaxHistory: cfg.SessionMaxHistory,
	}, log)
	sessions.SetMetrics(m)
	defer sessions.Stop()
	log.WithField("idle_ttl", cfg.SessionIdleTTL).Info("Session manager created")

	// Rate limiters
	sessionLimiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:  cfg.SessionRateLimitBurst,
		RefillRate: cfg.SessionRateLimitRefillSec,
	})
	sessionLimiter.OnDrop(func() { m.RecordRateLimiterDrop("session") })
	defer sessionLimiter.Stop()

	globalLimiter := ratelimit.New(cfg.GlobalRateLimitRPS, cfg.GlobalRateLimitRPS)

	// Snapshot sync (optional)
	var snapshotMgr *snapshot.Manager
	if cfg.SnapshotEnabled() {
		store, err := snapshot.NewStore(context.Background(), snapshot.StoreConfig{
			Endpoint:    cfg.SnapshotEndpoint,
			AccessKeyID: cfg.SnapshotAccessKey,
			SecretKey:   cfg.SnapshotSecretKey,
			Bucket:      cfg.SnapshotBucket,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to create snapshot store")
		}

		snapshotMgr = snapshot.New(store, snapshot.Config{
			Key:          cfg.SnapshotKey,
			PollInterval: cfg.SnapshotInterval,
			DataDir:      cfg.DataDir,
		}, hot, ret, res, log)
		snapshotMgr.SetMetrics(m)

		// Pull the current snapshot before serving so a fresh deployment
		// starts with a populated catalog.
		startCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := snapshotMgr.Refresh(startCtx); err != nil {
			log.WithError(err).Warn("Initial snapshot refresh failed, serving existing catalog")
		}
		cancel()

		snapshotMgr.Start(context.Background())
		defer snapshotMgr.Stop()
	} else {
		log.Info("Snapshot sync not configured")
	}

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(sentryMiddleware())
	router.Use(globalRateLimitMiddleware(globalLimiter, m))

	setupRoutes(router, &routeDeps{
		cfg:            cfg,
		sessions:       sessions,
		catalog:        hot,
		registry:       registry,
		sessionLimiter: sessionLimiter,
		metrics:        m,
		log:            log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.ServerHTTPRead,
		WriteTimeout: config.ServerHTTPWrite,
		IdleTimeout:  config.ServerHTTPIdle,
	}

	// Background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in gauge metrics goroutine")
			}
		}()
		updateGaugeMetrics(jobCtx, hot, sessions, bm25, m, log)
	}()

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	cancelJobs()

	goDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(goDone)
	}()

	select {
	case <-goDone:
		log.Info("All background goroutines stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for goroutines to stop")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if err := planner.Close(); err != nil {
		log.WithError(err).Error("Failed to close planner")
	}

	log.Info("Server stopped")
}

// plannerModels assembles the ordered model list from primary and fallback
// settings, skipping empties so package defaults apply.
func plannerModels(primary, fallback string) []string {
	var models []string
	if primary != "" {
		models = append(models, primary)
	}
	if fallback != "" {
		models = append(models, fallback)
	}
	return models
}

// rebuildFromCatalog restores the retriever and resolver indexes from the
// persisted catalog. An empty catalog is not an error; indexes fill on the
// first ingest or snapshot refresh.
func rebuildFromCatalog(ctx context.Context, hot *catalog.HotSwapDB, ret *retriever.Retriever, res *resolver.Resolver, log *logger.Logger) error {
	ds, err := hot.DB().ExportDataset(ctx)
	if err != nil {
		return err
	}
	if len(ds.Departments) == 0 {
		log.Info("Catalog is empty, skipping index build")
		return nil
	}

	if err := ingest.RestoreIndexes(ctx, ds, ret, res); err != nil {
		return err
	}
	log.WithFields(map[string]any{
		"departments": len(ds.Departments),
		"courses":     len(ds.Courses),
	}).Info("Search indexes restored from catalog")
	return nil
}
