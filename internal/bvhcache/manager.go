// Package bvhcache caches compiled BVHs on disk, keyed by a content
// hash of the mesh they were built from, so a second run of the same
// scene skips the (expensive, but deterministic) SAH build. Recovered
// from Core/BVH/BVH.cpp's SaveToFile/LoadFromFile (spec.md §6's "BVH
// cache file"), with the mutex-guarded map + ManagerConfig/
// DefaultManagerConfig() shape grounded on the teacher's
// chunk.Manager.
package bvhcache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kazvorn/goray/internal/bvh"
)

// ManagerConfig configures where cached BVHs live on disk, matching
// the teacher's ManagerConfig/DefaultManagerConfig() shape.
type ManagerConfig struct {
	CacheDir string
}

// DefaultManagerConfig returns a cache directory under the user's
// cache directory, the same fallback-to-"." pattern the teacher's
// save.Manager uses for its save directory.
func DefaultManagerConfig() ManagerConfig {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return ManagerConfig{CacheDir: filepath.Join(dir, "goray", "bvhcache")}
}

// Manager caches built BVHs on disk by content key, with an in-memory
// mutex-guarded map mirroring the teacher's chunk.Manager so repeated
// lookups in one process don't re-read the file.
type Manager struct {
	cfg ManagerConfig

	mu  sync.RWMutex
	hot map[string]*bvh.BVH
}

// NewManager creates a cache manager rooted at cfg.CacheDir, creating
// the directory if needed.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("bvhcache: create cache dir %q: %w", cfg.CacheDir, err)
	}
	return &Manager{cfg: cfg, hot: make(map[string]*bvh.BVH)}, nil
}

func (m *Manager) path(key [32]byte) string {
	return filepath.Join(m.cfg.CacheDir, hex.EncodeToString(key[:])+".bvhc")
}

// Load returns the cached BVH for key, or ok=false if no cache entry
// exists or the entry on disk is invalid (wrong magic/version, in
// which case the caller should rebuild per spec.md §6).
func (m *Manager) Load(key [32]byte) (*bvh.BVH, bool) {
	m.mu.RLock()
	if cached, ok := m.hot[hex.EncodeToString(key[:])]; ok {
		m.mu.RUnlock()
		return cached, true
	}
	m.mu.RUnlock()

	data, err := os.ReadFile(m.path(key))
	if err != nil {
		return nil, false
	}
	loaded, err := bvh.Decode(data)
	if err != nil {
		// Distinct error kind per spec.md §6: invalid cache, caller rebuilds.
		fmt.Printf("[BVHCache] invalid cache entry, rebuilding: %v\n", err)
		return nil, false
	}

	m.mu.Lock()
	m.hot[hex.EncodeToString(key[:])] = loaded
	m.mu.Unlock()
	return loaded, true
}

// Store writes b to disk under key and into the in-memory hot map.
func (m *Manager) Store(key [32]byte, b *bvh.BVH) error {
	data, err := bvh.Encode(b)
	if err != nil {
		return fmt.Errorf("bvhcache: encode: %w", err)
	}
	if err := os.WriteFile(m.path(key), data, 0644); err != nil {
		return fmt.Errorf("bvhcache: write %q: %w", m.path(key), err)
	}

	m.mu.Lock()
	m.hot[hex.EncodeToString(key[:])] = b
	m.mu.Unlock()

	fmt.Printf("[BVHCache] stored %d nodes at %s\n", len(b.Nodes), m.path(key))
	return nil
}
