package engine

import (
	"encoding/binary"
	"encoding/hex"
	"sync"

	"github.com/zeebo/xxh3"
)

// ============================================================================
// DIMENSION CACHE — memoized analyzer output
// ============================================================================
// Keyed by (dataset identity, field). Identity is a caller-supplied ID
// (WithDatasetID) or an xxh3 fingerprint of that one field's column.
// Entries are copied in and out; callers never share a slice with the cache.
// ============================================================================

// DefaultCacheSize bounds a DimensionCache created with size <= 0.
const DefaultCacheSize = 256

// DimensionCache memoizes Dimension Analyzer results. Safe for concurrent use.
type DimensionCache struct {
	mu      sync.Mutex
	max     int
	entries map[cacheKey]Dimension
	order   []cacheKey // FIFO eviction
	hits    int
	misses  int
}

type cacheKey struct {
	dataset string
	field   string
}

// NewDimensionCache returns a cache holding at most size entries.
func NewDimensionCache(size int) *DimensionCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &DimensionCache{max: size, entries: make(map[cacheKey]Dimension)}
}

// Analyze returns the dimensions for fields, analyzing only the fields not
// already cached for datasetID. An empty datasetID keys each field by the
// fingerprint of its own column.
func (c *DimensionCache) Analyze(datasetID string, view RecordView, fields []string) []Dimension {
	dims := make([]Dimension, len(fields))
	for i, f := range fields {
		id := datasetID
		if id == "" {
			id = FingerprintFields(view, []string{f})
		}
		key := cacheKey{dataset: id, field: f}
		if d, ok := c.get(key); ok {
			dims[i] = d
			continue
		}
		d := analyzeField(view, f)
		c.put(key, d)
		dims[i] = d
	}
	return dims
}

func (c *DimensionCache) get(key cacheKey) (Dimension, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[key]
	if !ok {
		c.misses++
		return Dimension{}, false
	}
	c.hits++
	return d.clone(), true
}

func (c *DimensionCache) put(key cacheKey, d Dimension) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = d.clone()
	c.order = append(c.order, key)
}

// Stats returns hit and miss counts.
func (c *DimensionCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached entries.
func (c *DimensionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fingerprint hashes the view's content: every record's fields in
// Fields() order, with presence and canonical value keys.
func Fingerprint(view RecordView) string {
	return FingerprintFields(view, view.Fields())
}

// FingerprintFields hashes only the given fields of every record, in the
// given order. Two views agree on it whenever those columns agree.
func FingerprintFields(view RecordView, fields []string) string {
	h := xxh3.New()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(view.Len()))
	h.Write(buf[:])
	for _, f := range fields {
		writeString(h, f)
	}
	for i := 0; i < view.Len(); i++ {
		for _, f := range fields {
			v, ok := view.Value(i, f)
			if !ok {
				h.Write([]byte{0})
				continue
			}
			h.Write([]byte{1})
			writeString(h, v.Key())
		}
	}

	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:])
}

func writeString(h *xxh3.Hasher, s string) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
	h.Write(buf[:])
	h.WriteString(s)
}
