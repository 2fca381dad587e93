// Package assets handles mesh loading and caching.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/Faultbox/occlubake/internal/logger"
	"github.com/Faultbox/occlubake/pkg/formats"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// ErrNotFound is returned when no search root holds the requested file.
var ErrNotFound = errors.New("mesh file not found")

// Manager loads mesh files from a list of search roots.
type Manager struct {
	roots []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddRoot adds a directory to search.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	dir, err := homedir.Expand(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, dir)
	m.mu.Unlock()

	return nil
}

// Load returns the mesh at path. Absolute paths are read directly, relative
// ones are resolved against the roots. Parsed meshes are cached by resolved
// path and shared between callers, who must not modify them.
func (m *Manager) Load(path string) (*mesh.Mesh, error) {
	resolved, err := m.resolve(path)
	if err != nil {
		return nil, err
	}

	if cached, ok := m.cache.Get(resolved); ok {
		return cached, nil
	}

	loaded, err := formats.LoadMesh(resolved)
	if err != nil {
		return nil, err
	}
	m.cache.Set(resolved, loaded)

	logger.Debug("mesh loaded",
		zap.String("path", resolved),
		zap.Int("vertices", loaded.VertexCount()),
		zap.Int("triangles", loaded.TriangleCount()))
	return loaded, nil
}

func (m *Manager) resolve(path string) (string, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(path) {
		return path, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		candidate := filepath.Join(m.roots[i], path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Close drops every root and cached mesh.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for parsed meshes.
type Cache struct {
	data map[string]*mesh.Mesh
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*mesh.Mesh),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*mesh.Mesh, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return m, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, m *mesh.Mesh) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = m
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*mesh.Mesh)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
