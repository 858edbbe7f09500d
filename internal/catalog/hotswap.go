package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// HotSwapDB wraps a DB with thread-safe hot-swap capability.
// Read operations acquire a read lock, allowing concurrent queries. Swap
// acquires the write lock, so a replacement catalog becomes visible to all
// readers at once and no query ever observes a half-replaced dataset.
type HotSwapDB struct {
	mu      sync.RWMutex
	current *DB
}

// NewHotSwapDB creates a new HotSwapDB with the given initial database path.
func NewHotSwapDB(dbPath string) (*HotSwapDB, error) {
	db, err := New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("hotswap: create initial db: %w", err)
	}
	return &HotSwapDB{current: db}, nil
}

// DB returns the current database handle.
// The handle is only valid for the duration of the operation; callers must
// not cache it across turns.
func (h *HotSwapDB) DB() *DB {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Swap atomically replaces the current database with the one at newDBPath.
//
// Swap process:
//  1. Open and validate the new database
//  2. Acquire write lock (blocks new read operations)
//  3. Swap the database pointer
//  4. Release write lock
//  5. Close and remove the old database asynchronously so in-flight
//     queries on the old handle can drain
func (h *HotSwapDB) Swap(ctx context.Context, newDBPath string) error {
	newDB, err := New(newDBPath)
	if err != nil {
		return fmt.Errorf("hotswap: open new db: %w", err)
	}

	if err := newDB.Ping(ctx); err != nil {
		_ = newDB.Close()
		return fmt.Errorf("hotswap: ping new db: %w", err)
	}

	h.mu.Lock()
	oldDB := h.current
	h.current = newDB
	h.mu.Unlock()

	go func() {
		_ = oldDB.Close()
		if oldDB.Path() != newDBPath && oldDB.Path() != ":memory:" {
			// Remove old .db, .db-wal, and .db-shm files
			_ = os.Remove(oldDB.Path())
			_ = os.Remove(oldDB.Path() + "-wal")
			_ = os.Remove(oldDB.Path() + "-shm")
		}
	}()

	return nil
}

// Path returns the current database file path.
func (h *HotSwapDB) Path() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.Path()
}

// Ping checks if the current database is accessible.
func (h *HotSwapDB) Ping(ctx context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.Ping(ctx)
}

// Close closes the current database connection.
func (h *HotSwapDB) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil {
		return h.current.Close()
	}
	return nil
}
