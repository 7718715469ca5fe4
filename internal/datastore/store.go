package datastore

import (
	"context"
	"sync"
	"time"

	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/errors"
	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/observability/metrics"
)

// Store holds the most recently loaded table of a Source and reloads it only when the
// source version changes. It is safe for concurrent use.
type Store struct {
	source  Source
	log     logger.Logger
	metrics *metrics.DatastoreMetrics
	rec     metrics.Recorder

	mu       sync.Mutex
	table    *detection.Table
	version  string
	loadedAt time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(log logger.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records source operations and table size on m.
func WithMetrics(m *metrics.DatastoreMetrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates a store over source. Nothing is loaded until LoadAll.
func NewStore(source Source, opts ...StoreOption) *Store {
	s := &Store{
		source: source,
		log:    logger.Global().Module("datastore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.rec = s.metrics.ForSource(source.Name())
	} else {
		s.rec = metrics.NewNoOpRecorder()
	}
	return s
}

// LoadAll returns the detection table, reading the source only if its version changed
// since the last load.
func (s *Store) LoadAll(ctx context.Context) (*detection.Table, error) {
	table, _, err := s.Snapshot(ctx)
	return table, err
}

// Snapshot is LoadAll that also returns the version the table was read at. Results
// derived from the table must be keyed by this version, not by a later Version call.
func (s *Store) Snapshot(ctx context.Context) (*detection.Table, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	version, err := s.source.Version(ctx)
	elapsed := time.Since(start)
	s.rec.RecordDuration(metrics.OpVersion, elapsed.Seconds())
	if err != nil {
		return nil, "", s.fail(metrics.OpVersion, elapsed, err)
	}
	s.rec.RecordOperation(metrics.OpVersion, metrics.StatusSuccess)

	if s.table != nil && version == s.version {
		s.recordCache(true)
		return s.table, s.version, nil
	}
	s.recordCache(false)

	start = time.Now()
	table, loadedVersion, err := s.source.Load(ctx)
	elapsed = time.Since(start)
	s.rec.RecordDuration(metrics.OpLoad, elapsed.Seconds())
	if err != nil {
		return nil, "", s.fail(metrics.OpLoad, elapsed, err)
	}
	s.rec.RecordOperation(metrics.OpLoad, metrics.StatusSuccess)

	previous := s.version
	s.table = table
	s.version = loadedVersion
	s.loadedAt = time.Now()

	tags := len(table.Tags())
	if s.metrics != nil {
		s.metrics.UpdateTableSize(table.Len(), tags, float64(s.loadedAt.Unix()))
	}
	s.log.Info("detections loaded",
		logger.String("source", s.source.Name()),
		logger.Int("records", table.Len()),
		logger.Int("tags", tags),
		logger.String("version", loadedVersion),
		logger.String("previous_version", previous),
		logger.Duration("duration", elapsed))

	return table, loadedVersion, nil
}

// Version returns the version of the cached table, empty before the first load.
func (s *Store) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// LoadedAt returns when the cached table was read, zero before the first load.
func (s *Store) LoadedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedAt
}

// Invalidate drops the cached table so the next LoadAll reads the source.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = nil
	s.version = ""
	s.log.Debug("table cache invalidated", logger.String("source", s.source.Name()))
}

// Close closes the source.
func (s *Store) Close() error {
	return s.source.Close()
}

func (s *Store) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordTableCache(hit)
	}
}

// fail records a failed source operation and adds its timing to the error.
// Cancellation is returned unwrapped.
func (s *Store) fail(operation string, elapsed time.Duration, err error) error {
	s.rec.RecordOperation(operation, metrics.StatusError)
	s.rec.RecordError(operation, errorType(err))
	s.log.Error("detection source failed",
		logger.String("source", s.source.Name()),
		logger.String("operation", operation),
		logger.Duration("duration", elapsed),
		logger.Error(err))

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDataLoad).
		Context("source", s.source.Name()).
		Timing(operation, elapsed).
		Priority(errors.PriorityHigh).
		Build()
}

// errorType labels an error for metrics by its category.
func errorType(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "context"
	}
	return string(errors.CategoryGeneric)
}
