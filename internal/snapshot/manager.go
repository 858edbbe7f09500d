package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/majormentor/major-mentor-go/internal/catalog"
	"github.com/majormentor/major-mentor-go/internal/ingest"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/metrics"
	"github.com/majormentor/major-mentor-go/internal/resolver"
	"github.com/majormentor/major-mentor-go/internal/retriever"
)

// ObjectStore is the subset of Store operations the manager needs.
type ObjectStore interface {
	Head(ctx context.Context, key string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Config holds snapshot manager configuration.
type Config struct {
	Key          string        // Object key of the corpus snapshot (zstd-compressed JSON)
	PollInterval time.Duration // How often to check for a new snapshot
	DataDir      string        // Directory for downloaded corpora and rebuilt catalogs
}

// Manager polls the object store for corpus snapshots and applies them.
// A new snapshot is re-ingested into a fresh SQLite file off to the side,
// then made visible through the catalog's hot-swap and an index rebuild.
// In-flight turns keep reading the old catalog until the swap completes.
type Manager struct {
	store     ObjectStore
	config    Config
	catalog   *catalog.HotSwapDB
	retriever *retriever.Retriever
	resolver  *resolver.Resolver
	log       *logger.Logger
	metrics   *metrics.Metrics

	mu          sync.RWMutex
	currentETag string

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// New creates a new snapshot manager.
func New(store ObjectStore, cfg Config, cat *catalog.HotSwapDB, ret *retriever.Retriever, res *resolver.Resolver, log *logger.Logger) *Manager {
	if cfg.DataDir == "" {
		cfg.DataDir = os.TempDir()
	}
	return &Manager{
		store:     store,
		config:    cfg,
		catalog:   cat,
		retriever: ret,
		resolver:  res,
		log:       log.WithModule("snapshot"),
		pollDone:  make(chan struct{}),
	}
}

// SetMetrics attaches a metrics recorder.
func (m *Manager) SetMetrics(mtr *metrics.Metrics) {
	m.metrics = mtr
}

// CurrentETag returns the ETag of the snapshot currently applied.
func (m *Manager) CurrentETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentETag
}

// SetCurrentETag records the applied ETag, used when the catalog was
// built locally before polling starts.
func (m *Manager) SetCurrentETag(etag string) {
	m.mu.Lock()
	m.currentETag = etag
	m.mu.Unlock()
}

// Start begins background polling. Stop must be called to shut it down.
func (m *Manager) Start(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	m.pollCancel = cancel

	go func() {
		defer close(m.pollDone)

		ticker := time.NewTicker(m.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				m.log.Info("snapshot polling stopped")
				return
			case <-ticker.C:
				if err := m.Refresh(pollCtx); err != nil {
					m.log.WithError(err).Warn("snapshot refresh failed")
				}
			}
		}
	}()

	m.log.Info("snapshot polling started",
		"interval", m.config.PollInterval,
		"key", m.config.Key)
}

// Stop shuts down the polling goroutine.
func (m *Manager) Stop() {
	if m.pollCancel != nil {
		m.pollCancel()
		<-m.pollDone
	}
}

// Refresh checks for a new snapshot and applies it if the ETag changed.
// A missing remote snapshot is not an error; the current catalog stays.
func (m *Manager) Refresh(ctx context.Context) error {
	remoteETag, err := m.store.Head(ctx, m.config.Key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if remoteETag == m.CurrentETag() {
		return nil
	}

	m.log.Info("new snapshot detected",
		"old_etag", m.CurrentETag(),
		"new_etag", remoteETag)

	if err := m.apply(ctx, remoteETag); err != nil {
		m.recordSwap("error")
		return err
	}

	m.recordSwap("ok")
	m.SetCurrentETag(remoteETag)
	m.log.Info("snapshot applied", "etag", remoteETag)
	return nil
}

// apply downloads, re-ingests, and swaps in the snapshot at the given ETag.
func (m *Manager) apply(ctx context.Context, etag string) error {
	body, _, err := m.store.Download(ctx, m.config.Key)
	if err != nil {
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	stamp := time.Now().UnixNano()
	corpusPath := filepath.Join(m.config.DataDir, fmt.Sprintf("corpus_%d.json", stamp))
	if err := DecompressStream(body, corpusPath); err != nil {
		os.Remove(corpusPath)
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	defer os.Remove(corpusPath)

	// Build the replacement catalog next to the live one; the unique name
	// lets the hot-swap delete the previous file once readers drain.
	dbPath := filepath.Join(m.config.DataDir, fmt.Sprintf("catalog_%d.db", stamp))
	ds, err := ingest.IngestFile(ctx, corpusPath, dbPath)
	if err != nil {
		removeDBFiles(dbPath)
		return fmt.Errorf("ingest snapshot: %w", err)
	}

	if err := m.catalog.Swap(ctx, dbPath); err != nil {
		removeDBFiles(dbPath)
		return fmt.Errorf("swap catalog: %w", err)
	}

	if err := ingest.RebuildIndexes(ctx, ds, m.retriever, m.resolver); err != nil {
		// The catalog already swapped; stale indexes degrade retrieval
		// quality but resolution against the catalog stays correct.
		return fmt.Errorf("rebuild indexes: %w", err)
	}

	return nil
}

func (m *Manager) recordSwap(status string) {
	if m.metrics != nil {
		m.metrics.RecordCatalogSwap(status)
	}
}

func removeDBFiles(path string) {
	os.Remove(path)
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")
}
