// Package assets handles game asset loading and caching.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"

	"github.com/Faultbox/titlecard/internal/engine/audio"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
)

// ErrNotFound is returned when an asset does not exist.
var ErrNotFound = errors.New("asset not found")

// Manager handles asset loading from a directory.
// Asset paths are slash separated and relative to that directory.
type Manager struct {
	dir   string
	cache *Cache
	log   *zap.Logger
}

// NewManager creates a new asset manager rooted at dir.
func NewManager(dir string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		dir:   dir,
		cache: NewCache(),
		log:   log,
	}
}

// Dir returns the asset root directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Cache returns the manager's byte cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

func cleanPath(p string) (string, error) {
	p = path.Clean("/" + filepath.ToSlash(p))[1:]
	if p == "" {
		return "", fmt.Errorf("%w: empty asset path", fault.ErrIllegalArgument)
	}
	return p, nil
}

// Load loads a file, serving repeated requests from the cache.
func (m *Manager) Load(p string) ([]byte, error) {
	key, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	// Check cache first
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	data, err := os.ReadFile(filepath.Join(m.dir, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w: %s", fault.ErrIO, ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading asset %s: %w", fault.ErrIO, key, err)
	}

	m.cache.Set(key, data)
	m.log.Debug("loaded asset", zap.String("path", key), zap.Int("bytes", len(data)))
	return data, nil
}

// Open returns a seekable reader over an asset's bytes.
func (m *Manager) Open(p string) (io.ReadCloser, error) {
	data, err := m.Load(p)
	if err != nil {
		return nil, err
	}
	return readSeekNopCloser{bytes.NewReader(data)}, nil
}

type readSeekNopCloser struct{ *bytes.Reader }

func (readSeekNopCloser) Close() error { return nil }

// Invalidate drops a path from the cache so the next Load reads it again.
func (m *Manager) Invalidate(p string) {
	if key, err := cleanPath(p); err == nil {
		m.cache.Delete(key)
	}
}

// LoadImage decodes a PNG or BMP asset.
func (m *Manager) LoadImage(p string) (image.Image, error) {
	data, err := m.Load(p)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image %s: %w", fault.ErrIO, p, err)
	}
	return img, nil
}

// LoadSprite decodes an image asset and uploads it as a sprite.
func (m *Manager) LoadSprite(ctx *graphics.Context, p string) (*graphics.Sprite, error) {
	img, err := m.LoadImage(p)
	if err != nil {
		return nil, err
	}
	sprite, err := ctx.LoadSpriteImage(img)
	if err != nil {
		return nil, fmt.Errorf("loading sprite %s: %w", p, err)
	}
	return sprite, nil
}

// LoadSound decodes an audio asset. Buffered sounds are decoded up front,
// others stream from the cached bytes while playing.
func (m *Manager) LoadSound(mgr *audio.Manager, p string, c audio.Category, buffered bool) (*audio.Sound, error) {
	r, err := m.Open(p)
	if err != nil {
		return nil, err
	}
	src, err := audio.Decode(r, audio.FormatOf(p))
	if err != nil {
		return nil, fmt.Errorf("loading sound %s: %w", p, err)
	}
	if buffered {
		return mgr.Buffer(p, src, c)
	}
	return mgr.Stream(p, src, c)
}

// Close releases cached data.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
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

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
