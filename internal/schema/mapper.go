// Package schema maps raw form labels onto canonical keys using an exact lookup followed by
// fuzzy matching, memoizing every decision.
package schema

import (
	"strings"
	"sync"

	"github.com/MeKo-Tech/formscan/internal/textsim"
)

// DefaultThreshold is the minimum similarity accepted for a fuzzy match.
const DefaultThreshold = 0.80

// Mapper resolves raw labels against a Table. It is safe for concurrent use.
type Mapper struct {
	table     *Table
	threshold float64

	mu    sync.RWMutex
	cache map[string]string
}

// NewMapper creates a mapper. A nil table behaves as an empty one and a threshold outside
// (0,1] falls back to DefaultThreshold.
func NewMapper(table *Table, threshold float64) *Mapper {
	if table == nil {
		table = NewTable()
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Mapper{
		table:     table,
		threshold: threshold,
		cache:     make(map[string]string),
	}
}

// Threshold returns the active similarity threshold.
func (m *Mapper) Threshold() float64 { return m.threshold }

// Map returns the canonical key for raw, or the trimmed input when nothing matches well
// enough. Blank input is returned unchanged.
func (m *Mapper) Map(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	key := textsim.Normalize(raw)

	m.mu.RLock()
	cached, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		return cached
	}

	result := m.resolve(key, raw)

	m.mu.Lock()
	// First writer wins so concurrent callers agree on one result.
	if prior, exists := m.cache[key]; exists {
		result = prior
	} else {
		m.cache[key] = result
	}
	m.mu.Unlock()
	return result
}

func (m *Mapper) resolve(key, raw string) string {
	if canonical, ok := m.table.Lookup(key); ok {
		return canonical
	}
	bestScore := 0.0
	best := -1
	for i, e := range m.table.entries {
		if s := textsim.Similarity(key, e.Raw); s > bestScore {
			bestScore = s
			best = i
		}
	}
	if best >= 0 && bestScore >= m.threshold {
		return m.table.entries[best].Canonical
	}
	return strings.TrimSpace(raw)
}

// CacheLen reports the number of memoized decisions.
func (m *Mapper) CacheLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}
