// Package assets resolves asset bytes from JPK packs and the filesystem.
package assets

import (
	"fmt"
	"os"
	"sync"

	"github.com/openrally/joekit/pkg/pack"
)

// Manager loads files from a set of packs with a filesystem fallback.
type Manager struct {
	packs []*pack.Archive
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates an empty manager. With no packs added, Load reads
// straight from the filesystem.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddPack opens a JPK archive and adds it to the search set.
// Packs are searched in reverse order (last added = highest priority).
func (m *Manager) AddPack(path string) error {
	archive, err := pack.Open(path)
	if err != nil {
		return fmt.Errorf("opening pack %s: %w", path, err)
	}

	m.mu.Lock()
	m.packs = append(m.packs, archive)
	m.mu.Unlock()

	return nil
}

// Load returns the named file's bytes, searching packs first and then
// the filesystem. The error on a miss names the path and every pack
// that was searched.
func (m *Manager) Load(path string) ([]byte, error) {
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.packs) - 1; i >= 0; i-- {
		if !m.packs[i].Contains(path) {
			continue
		}
		data, err := m.packs[i].Read(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s from pack %s: %w", path, m.packs[i].Path(), err)
		}
		m.cache.Set(path, data)
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		m.cache.Set(path, data)
		return data, nil
	}

	if len(m.packs) > 0 {
		return nil, fmt.Errorf("file not found: %s (searched %d packs and filesystem)", path, len(m.packs))
	}
	return nil, fmt.Errorf("file not found: %s", path)
}

// Close closes all packs and drops the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.packs {
		archive.Close()
	}
	m.packs = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache hit/miss counters.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
