// Package analysis wires the detection store, memo cache and analytics service from
// settings and runs the tagtrack server.
package analysis

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/tphakala/tagtrack/internal/cache"
	"github.com/tphakala/tagtrack/internal/conf"
	"github.com/tphakala/tagtrack/internal/datastore"
	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/observability"
	"github.com/tphakala/tagtrack/internal/service"
)

// GetLogger returns the analysis package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis")
}

// App holds the components built from settings.
type App struct {
	Settings *conf.Settings
	Metrics  *observability.Metrics
	Store    *datastore.Store
	Memo     *cache.Memo
	Service  *service.Service
}

// New builds the application components. fs backs file-based sources.
func New(settings *conf.Settings, fs afero.Fs) (*App, error) {
	m, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	source, err := datastore.NewSource(&settings.Source, fs, logger.Global().Module("datastore"), m.Datastore)
	if err != nil {
		return nil, err
	}

	store := datastore.NewStore(source, datastore.WithMetrics(m.Datastore))
	memo := cache.New(settings.Cache.TTL, settings.Cache.Cleanup, cache.WithMetrics(m.Cache))
	svc := service.New(store, memo, service.Config{
		ResidencyPattern: settings.Analytics.ResidencyPattern,
		ArrivalPattern:   settings.Analytics.ArrivalPattern,
		SpeedThreshold:   settings.Analytics.SpeedThreshold,
		DielPeriods:      settings.Analytics.DielPeriods,
	}, service.WithMetrics(m.Analytics))

	GetLogger().Debug("application initialized",
		logger.String("source", source.Name()),
		logger.Duration("cache_ttl", settings.Cache.TTL))

	return &App{
		Settings: settings,
		Metrics:  m,
		Store:    store,
		Memo:     memo,
		Service:  svc,
	}, nil
}

// Close flushes cached results and releases the detection source.
func (a *App) Close() error {
	a.Memo.Flush()
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("failed to close detection source: %w", err)
	}
	return nil
}
