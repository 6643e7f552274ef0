package compositor

import (
	"math"
	"sync"

	"captioner/internal/animation"
)

// DefaultCacheEntries bounds a HandleCache created without an explicit limit.
const DefaultCacheEntries = 4096

// Measurer reports the unscaled pixel size of text at a font size.
type Measurer interface {
	Measure(text string, fontSize float64) (width, height float64)
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(text string, fontSize float64) (float64, float64)

// Measure calls f.
func (f MeasurerFunc) Measure(text string, fontSize float64) (float64, float64) {
	return f(text, fontSize)
}

// Handle is a rendered word: its text, the visual state it was produced for,
// and its unscaled size. Renderers attach rasterised output by key.
type Handle struct {
	Key     HandleKey     `json:"-"`
	Text    string        `json:"text"`
	Width   float64       `json:"width"`
	Height  float64       `json:"height"`
	Color   animation.RGB `json:"color"`
	Opacity float64       `json:"opacity"`
}

// HandleKey identifies a rendered word. Opacity and scale are quantised so
// animation frames that look identical share an entry.
type HandleKey struct {
	Text     string
	FontSize float64
	Color    animation.RGB
	Opacity  uint8
	Scale    uint16
}

func makeKey(text string, fontSize float64, state animation.State) HandleKey {
	return HandleKey{
		Text:     text,
		FontSize: fontSize,
		Color:    state.Color,
		Opacity:  uint8(math.Round(clamp(state.Opacity, 0, 1) * 255)),
		Scale:    uint16(math.Round(clamp(state.Scale, 0, 60) * 1000)),
	}
}

// CacheStats describes cache effectiveness.
type CacheStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	// Measured counts Measurer calls.
	Measured uint64 `json:"measured"`
}

type sizeKey struct {
	text     string
	fontSize float64
}

type size struct {
	width, height float64
}

// HandleCache memoises text measurements by (text, font size) and rendered
// handles by HandleKey. It is safe for concurrent use. Each map is cleared
// wholesale when it reaches the limit.
type HandleCache struct {
	mu       sync.Mutex
	limit    int
	entries  map[HandleKey]Handle
	sizes    map[sizeKey]size
	hits     uint64
	misses   uint64
	measured uint64
}

// NewHandleCache returns a cache holding at most limit entries. A
// non-positive limit uses DefaultCacheEntries.
func NewHandleCache(limit int) *HandleCache {
	if limit <= 0 {
		limit = DefaultCacheEntries
	}
	return &HandleCache{
		limit:   limit,
		entries: make(map[HandleKey]Handle),
		sizes:   make(map[sizeKey]size),
	}
}

// Measure returns the unscaled size of text, calling m only when this text
// and font size have not been measured since the last clear. m runs outside
// the lock.
func (c *HandleCache) Measure(m Measurer, text string, fontSize float64) (width, height float64) {
	key := sizeKey{text: text, fontSize: fontSize}
	c.mu.Lock()
	if sz, ok := c.sizes[key]; ok {
		c.mu.Unlock()
		return sz.width, sz.height
	}
	c.mu.Unlock()

	width, height = m.Measure(text, fontSize)

	c.mu.Lock()
	c.measured++
	if len(c.sizes) >= c.limit {
		clear(c.sizes)
	}
	c.sizes[key] = size{width: width, height: height}
	c.mu.Unlock()
	return width, height
}

// Get returns the cached handle for key, building and storing it on a miss.
// build runs outside the lock.
func (c *HandleCache) Get(key HandleKey, build func() Handle) Handle {
	c.mu.Lock()
	if h, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return h
	}
	c.misses++
	c.mu.Unlock()

	h := build()
	h.Key = key

	c.mu.Lock()
	if len(c.entries) >= c.limit {
		clear(c.entries)
	}
	c.entries[key] = h
	c.mu.Unlock()
	return h
}

// Stats returns a snapshot of cache counters.
func (c *HandleCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses, Measured: c.measured}
}

// Reset drops every entry and zeroes the counters.
func (c *HandleCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	clear(c.sizes)
	c.hits, c.misses, c.measured = 0, 0, 0
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
