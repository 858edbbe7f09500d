package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/majormentor/major-mentor-go/internal/config"
	"github.com/majormentor/major-mentor-go/internal/ingest"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/snapshot"
)

// CLI flags
var (
	corpusFlag  = flag.String("corpus", "", "Path to the corpus JSON file (default: CORPUS_PATH)")
	outFlag     = flag.String("out", "", "Path to the SQLite catalog to build (default: DATA_DIR/catalog.db)")
	publishFlag = flag.Bool("publish", false, "Upload the corpus snapshot to the configured bucket after building")
	timeoutFlag = flag.Duration("timeout", 10*time.Minute, "Overall timeout for the build")
)

func main() {
	// Parse command-line flags
	flag.Parse()

	// Load configuration for ingest mode (model API keys not required)
	cfg, err := config.LoadForMode(config.IngestMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting ingest tool")

	// Resolve input and output paths
	corpusPath := *corpusFlag
	if corpusPath == "" {
		corpusPath = cfg.CorpusPath
	}
	if corpusPath == "" {
		log.Fatal("No corpus file given (use -corpus or CORPUS_PATH)")
	}
	dbPath := *outFlag
	if dbPath == "" {
		dbPath = cfg.SQLitePath()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.WithError(err).Fatal("Failed to create output directory")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	// Build the catalog
	log.WithField("corpus", corpusPath).
		WithField("catalog", dbPath).
		Info("Building catalog")
	startTime := time.Now()
	ds, err := ingest.IngestFile(ctx, corpusPath, dbPath)
	if err != nil {
		log.WithError(err).Fatal("Ingest failed")
	}
	duration := time.Since(startTime)

	log.WithField("universities", len(ds.Universities)).
		WithField("departments", len(ds.Departments)).
		WithField("courses", len(ds.Courses)).
		WithField("duration", duration).
		Info("Catalog built")

	// Publish the snapshot for running servers to pick up
	if *publishFlag {
		if !cfg.SnapshotEnabled() {
			log.Fatal("Publish requested but SNAPSHOT_BUCKET is not configured")
		}
		store, err := snapshot.NewStore(ctx, snapshot.StoreConfig{
			Endpoint:    cfg.SnapshotEndpoint,
			AccessKeyID: cfg.SnapshotAccessKey,
			SecretKey:   cfg.SnapshotSecretKey,
			Bucket:      cfg.SnapshotBucket,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to create snapshot store")
		}
		etag, err := store.Publish(ctx, cfg.SnapshotKey, corpusPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to publish snapshot")
		}
		log.WithField("key", cfg.SnapshotKey).
			WithField("etag", etag).
			Info("Snapshot published")
		fmt.Printf("✓ Snapshot published: %s (etag %s)\n", cfg.SnapshotKey, etag)
	}

	// Print final summary
	fmt.Printf("\n✅ Ingest complete: %d universities, %d departments, %d courses\n",
		len(ds.Universities), len(ds.Departments), len(ds.Courses))
	fmt.Printf("Total time: %v\n", duration.Round(time.Millisecond))
}
