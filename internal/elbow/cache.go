package elbow

import (
	"container/list"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

type cacheEntry struct {
	key    string
	points []Point
}

// Cache is a bounded LRU of computed routes. All methods are safe for
// concurrent use; stored routes are never handed out directly.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	entries  map[string]*list.Element

	hits, misses, evictions uint64
}

// NewCache creates a cache holding at most capacity routes.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns a copy of the route stored under key.
func (c *Cache) Get(key string) ([]Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return append([]Point(nil), el.Value.(*cacheEntry).points...), true
}

// Put stores a copy of points, evicting the least recently used entry once
// the cache is over capacity.
func (c *Cache) Put(key string, points []Point) {
	cp := append([]Point(nil), points...)
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).points = cp
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, points: cp})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
		c.evictions++
	}
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Size:      c.order.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// ── Fingerprint ────────────────────────────────────────────

// fingerprintGrid is the rounding step applied before hashing, so drag
// jitter maps to the same key.
const fingerprintGrid = 0.5

type fingerprint struct{ b strings.Builder }

func (f *fingerprint) num(v float64) {
	v = math.Round(v/fingerprintGrid) * fingerprintGrid
	if v == 0 {
		v = 0 // fold -0
	}
	f.b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	f.b.WriteByte(',')
}

func (f *fingerprint) point(p Point) {
	f.num(p.X)
	f.num(p.Y)
}

func (f *fingerprint) rect(r *Rect) {
	if r == nil {
		f.b.WriteString("-;")
		return
	}
	f.num(r.Left)
	f.num(r.Top)
	f.num(r.Width)
	f.num(r.Height)
	f.b.WriteByte(';')
}

func (f *fingerprint) tag(s string) {
	f.b.WriteString(s)
	f.b.WriteByte('|')
}

// routeKey fingerprints the inputs of Router.Route. Intermediate obstacles
// are sorted so their order does not matter.
func routeKey(start, end Point, sd, ed Direction, sb, eb *Rect, stub float64, intermediate []Rect) string {
	var f fingerprint
	f.point(start)
	f.point(end)
	f.tag(sd.String() + ">" + ed.String())
	f.rect(sb)
	f.rect(eb)
	f.num(stub)
	f.tag("")

	obs := make([]string, len(intermediate))
	for i := range intermediate {
		var of fingerprint
		of.rect(&intermediate[i])
		obs[i] = of.b.String()
	}
	sort.Strings(obs)
	for _, o := range obs {
		f.b.WriteString(o)
	}
	return f.b.String()
}
