// Package cache memoizes analytics results per tag and source version.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/observability/metrics"
)

// Memo is a read-through cache for derived values. Keys embed the source version, so a
// new version never sees results computed from an older table.
type Memo struct {
	items   *gocache.Cache
	metrics *metrics.CacheMetrics
	log     logger.Logger
}

// Option configures a Memo.
type Option func(*Memo)

// WithMetrics records hits, misses and size on m.
func WithMetrics(m *metrics.CacheMetrics) Option {
	return func(memo *Memo) {
		memo.metrics = m
	}
}

// WithLogger sets the cache logger.
func WithLogger(log logger.Logger) Option {
	return func(memo *Memo) {
		if log != nil {
			memo.log = log
		}
	}
}

// New creates a Memo whose entries live for ttl; expired entries are purged every cleanup.
// A zero ttl keeps entries until Flush.
func New(ttl, cleanup time.Duration, opts ...Option) *Memo {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m := &Memo{
		items: gocache.New(ttl, cleanup),
		log:   logger.Global().Module("cache"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Key joins the parts identifying one derived value.
func Key(kind, tag, version string, params ...string) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte('|')
	b.WriteString(version)
	b.WriteByte('|')
	b.WriteString(tag)
	for _, p := range params {
		b.WriteByte('|')
		b.WriteString(p)
	}
	return b.String()
}

// entry stores the error alongside the value; analytics errors are as deterministic as results.
type entry struct {
	value any
	err   error
}

// GetOrCompute returns the cached result for key, or runs compute and caches what it returns.
func GetOrCompute[T any](m *Memo, kind, key string, compute func() (T, error)) (T, error) {
	if cached, found := m.items.Get(key); found {
		if e, ok := cached.(entry); ok {
			if v, ok := e.value.(T); ok {
				m.recordLookup(kind, true)
				return v, e.err
			}
		}
	}
	m.recordLookup(kind, false)

	value, err := compute()
	m.items.Set(key, entry{value: value, err: err}, gocache.DefaultExpiration)
	if m.metrics != nil {
		m.metrics.RecordSet(kind)
		m.metrics.UpdateItems(m.items.ItemCount())
	}
	return value, err
}

// Len returns the number of cached entries, including expired ones not yet purged.
func (m *Memo) Len() int {
	return m.items.ItemCount()
}

// Flush drops every entry.
func (m *Memo) Flush() {
	n := m.items.ItemCount()
	m.items.Flush()
	if m.metrics != nil {
		m.metrics.RecordInvalidation()
		m.metrics.UpdateItems(0)
	}
	m.log.Debug("memo cache flushed", logger.Int("entries", n))
}

func (m *Memo) recordLookup(kind string, hit bool) {
	if m.metrics != nil {
		m.metrics.RecordLookup(kind, hit)
	}
}
