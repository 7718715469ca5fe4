// Package service exposes the telemetry analytics over the loaded detection table,
// memoizing results per source version. It is safe for concurrent use.
package service

import (
	"context"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/tphakala/tagtrack/internal/analytics"
	"github.com/tphakala/tagtrack/internal/cache"
	"github.com/tphakala/tagtrack/internal/datastore"
	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/errors"
	"github.com/tphakala/tagtrack/internal/export"
	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/observability/metrics"
	"github.com/tphakala/tagtrack/internal/suncalc"
)

// ErrTagNotFound is returned for a tag that has no detections in the table.
var ErrTagNotFound = errors.NewStd("tag not found")

// allTags keys results computed over every track.
const allTags = "*"

// Config holds the analytics defaults applied when a request does not override them.
type Config struct {
	ResidencyPattern string
	ArrivalPattern   string
	SpeedThreshold   float64
	DielPeriods      bool
	// Now is the clock used for "time since last detection".
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.ResidencyPattern == "" {
		c.ResidencyPattern = analytics.DefaultResidencyPattern
	}
	if c.ArrivalPattern == "" {
		c.ArrivalPattern = analytics.DefaultResidencyPattern
	}
	if c.SpeedThreshold <= 0 || math.IsNaN(c.SpeedThreshold) {
		c.SpeedThreshold = analytics.DefaultSpeedThreshold
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Service is the analytics facade used by the HTTP API and the CLI.
type Service struct {
	store   *datastore.Store
	memo    *cache.Memo
	sun     *suncalc.SunCalc
	cfg     Config
	log     logger.Logger
	metrics *metrics.AnalyticsMetrics
	rec     metrics.Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records analytics operations on m.
func WithMetrics(m *metrics.AnalyticsMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSunCalc sets the calculator used to classify arrivals into diel periods.
func WithSunCalc(sc *suncalc.SunCalc) Option {
	return func(s *Service) {
		s.sun = sc
	}
}

// New creates a Service over store, caching results in memo.
func New(store *datastore.Store, memo *cache.Memo, cfg Config, opts ...Option) *Service {
	s := &Service{
		store: store,
		memo:  memo,
		cfg:   cfg.withDefaults(),
		log:   logger.Global().Module("analytics"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.rec = s.metrics
	} else {
		s.rec = metrics.NewNoOpRecorder()
	}
	if s.sun == nil && s.cfg.DielPeriods {
		s.sun = suncalc.NewSunCalc(s.rec)
	}
	return s
}

// Config returns the effective analytics defaults.
func (s *Service) Config() Config {
	return s.cfg
}

// Version returns the source version of the currently loaded table.
func (s *Service) Version() string {
	return s.store.Version()
}

// Table returns the current detection table, loading it if the source changed.
func (s *Service) Table(ctx context.Context) (*detection.Table, error) {
	return s.store.LoadAll(ctx)
}

// Tags lists every tag with its species and detection count.
func (s *Service) Tags(ctx context.Context) ([]detection.TagInfo, error) {
	table, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return table.TagInfos(), nil
}

// track returns the time-ordered records of tag and the table version.
func (s *Service) track(ctx context.Context, tag string) ([]detection.Record, string, error) {
	track, version, _, err := s.trackSnapshot(ctx, tag)
	return track, version, err
}

// trackSnapshot is track that also returns the table the track was taken from.
func (s *Service) trackSnapshot(ctx context.Context, tag string) ([]detection.Record, string, *detection.Table, error) {
	table, version, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	if !table.HasTag(tag) {
		return nil, "", nil, errors.New(ErrTagNotFound).
			Component("service").
			Category(errors.CategoryNotFound).
			Context("tag_id", tag).
			Build()
	}
	return table.Track(tag), version, table, nil
}

// Detections returns the track of tag annotated with speeds.
func (s *Service) Detections(ctx context.Context, tag string) ([]analytics.SpeedRecord, error) {
	track, version, err := s.track(ctx, tag)
	if err != nil {
		return nil, err
	}
	return s.detections(track, tag, version)
}

func (s *Service) detections(track []detection.Record, tag, version string) ([]analytics.SpeedRecord, error) {
	return cache.GetOrCompute(s.memo, metrics.OpFlagSpeeds, cache.Key(metrics.OpFlagSpeeds, tag, version),
		func() ([]analytics.SpeedRecord, error) {
			return observe(s, metrics.OpFlagSpeeds, len(track), func() ([]analytics.SpeedRecord, error) {
				return analytics.FlagSpeeds(track)
			})
		})
}

// Outliers returns the detections of tag faster than threshold m/s.
// A threshold of zero uses the configured default.
func (s *Service) Outliers(ctx context.Context, tag string, threshold float64) ([]analytics.SpeedRecord, error) {
	if threshold == 0 {
		threshold = s.cfg.SpeedThreshold
	}
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, errors.Newf("speed threshold must be a positive number, got %v", threshold).
			Component("service").
			Category(errors.CategoryValidation).
			Build()
	}
	annotated, err := s.Detections(ctx, tag)
	if err != nil {
		return nil, err
	}
	outliers := analytics.Outliers(annotated, threshold)
	if s.metrics != nil {
		s.metrics.AddOutliers(len(outliers))
	}
	return outliers, nil
}

// Residency returns the percentage of tag's detections on stations matching pattern.
// An empty pattern uses the configured default.
func (s *Service) Residency(ctx context.Context, tag, pattern string) (float64, error) {
	if pattern == "" {
		pattern = s.cfg.ResidencyPattern
	}
	track, version, err := s.track(ctx, tag)
	if err != nil {
		return 0, err
	}
	return cache.GetOrCompute(s.memo, metrics.OpResidency, cache.Key(metrics.OpResidency, tag, version, pattern),
		func() (float64, error) {
			return observe(s, metrics.OpResidency, len(track), func() (float64, error) {
				return analytics.Residency(track, pattern)
			})
		})
}

// Efficiency returns the detection-efficiency curve of tag. For a single-station track
// the curve is returned together with an error matching analytics.ErrDegenerateCurve.
func (s *Service) Efficiency(ctx context.Context, tag string) (analytics.Curve, error) {
	track, version, err := s.track(ctx, tag)
	if err != nil {
		return analytics.Curve{}, err
	}
	return cache.GetOrCompute(s.memo, metrics.OpEfficiency, cache.Key(metrics.OpEfficiency, tag, version),
		func() (analytics.Curve, error) {
			return observe(s, metrics.OpEfficiency, len(track), func() (analytics.Curve, error) {
				return analytics.EfficiencyCurve(track)
			})
		})
}

// StationHits returns the per-station detection counts of tag.
func (s *Service) StationHits(ctx context.Context, tag string) ([]analytics.StationHit, error) {
	track, version, err := s.track(ctx, tag)
	if err != nil {
		return nil, err
	}
	return cache.GetOrCompute(s.memo, metrics.OpStationHits, cache.Key(metrics.OpStationHits, tag, version),
		func() ([]analytics.StationHit, error) {
			return observe(s, metrics.OpStationHits, len(track), func() ([]analytics.StationHit, error) {
				return analytics.StationHits(track)
			})
		})
}

// Summary returns the KPIs of tag. Summaries depend on the clock and are not cached.
func (s *Service) Summary(ctx context.Context, tag string) (analytics.Summary, error) {
	track, _, err := s.track(ctx, tag)
	if err != nil {
		return analytics.Summary{}, err
	}
	return observe(s, metrics.OpSummary, len(track), func() (analytics.Summary, error) {
		return analytics.Summarize(track, analytics.SummaryOptions{
			ResidencyPattern: s.cfg.ResidencyPattern,
			SpeedThreshold:   s.cfg.SpeedThreshold,
			Now:              s.cfg.Now,
		})
	})
}

// Arrivals returns the first-arrival hour histogram of all tags on stations matching
// pattern. An empty pattern uses the configured default.
func (s *Service) Arrivals(ctx context.Context, pattern string) (analytics.Histogram, error) {
	if pattern == "" {
		pattern = s.cfg.ArrivalPattern
	}
	table, version, err := s.store.Snapshot(ctx)
	if err != nil {
		return analytics.Histogram{}, err
	}
	records := table.Records()

	var opts []analytics.ArrivalOption
	if s.sun != nil {
		opts = append(opts, analytics.WithDielClassifier(s.sun))
	}
	key := cache.Key(metrics.OpArrivals, allTags, version, pattern, strconv.FormatBool(s.sun != nil))
	return cache.GetOrCompute(s.memo, metrics.OpArrivals, key, func() (analytics.Histogram, error) {
		return observe(s, metrics.OpArrivals, len(records), func() (analytics.Histogram, error) {
			return analytics.ArrivalHistogram(records, pattern, opts...)
		})
	})
}

// Export writes the annotated track of tag as CSV.
func (s *Service) Export(ctx context.Context, tag string, w io.Writer) error {
	track, version, table, err := s.trackSnapshot(ctx, tag)
	if err != nil {
		return err
	}
	annotated, err := s.detections(track, tag, version)
	if err != nil {
		return err
	}
	_, err = observe(s, metrics.OpExport, len(annotated), func() (struct{}, error) {
		return struct{}{}, export.WriteCSV(w, annotated, table.Columns())
	})
	if err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			TrackContext(tag, len(annotated)).
			Build()
	}
	return nil
}

// Reload drops every cached table and result, then reads the source again.
func (s *Service) Reload(ctx context.Context) (*detection.Table, error) {
	s.store.Invalidate()
	s.memo.Flush()
	table, version, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("detections reloaded",
		logger.Int("records", table.Len()),
		logger.String("version", version))
	return table, nil
}

// observe runs fn and records its outcome and duration under operation.
func observe[T any](s *Service, operation string, records int, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	elapsed := time.Since(start)

	s.rec.RecordDuration(operation, elapsed.Seconds())
	if s.metrics != nil {
		s.metrics.ObserveTrackLength(records)
	}

	switch {
	case err == nil:
		s.rec.RecordOperation(operation, metrics.StatusSuccess)
	case errors.Is(err, analytics.ErrDegenerateCurve):
		// a usable result with a caveat
		s.rec.RecordOperation(operation, metrics.StatusSuccess)
		s.log.Debug("degenerate efficiency curve", logger.String("operation", operation), logger.Int("records", records))
	default:
		s.rec.RecordOperation(operation, metrics.StatusError)
		s.rec.RecordError(operation, errorCategory(err))
		s.log.Warn("analytics operation failed",
			logger.String("operation", operation),
			logger.Int("records", records),
			logger.Error(err))
	}

	s.log.Trace("analytics operation",
		logger.String("operation", operation),
		logger.Int("records", records),
		logger.Duration("duration", elapsed))
	return v, err
}

func errorCategory(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	return string(errors.CategoryGeneric)
}
