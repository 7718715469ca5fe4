package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/tagtrack/internal/api"
	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/observability"
)

// Serve runs the HTTP API, and the telemetry endpoint when enabled, until ctx is
// cancelled or one of them fails.
func Serve(ctx context.Context, app *App) error {
	log := GetLogger()
	settings := app.Settings

	// An unreadable source is not fatal: requests answer 503 until it recovers.
	if table, err := app.Store.LoadAll(ctx); err != nil {
		log.Warn("initial detection load failed", logger.Error(err))
	} else {
		log.Info("detections ready",
			logger.Int("records", table.Len()),
			logger.Int("tags", len(table.Tags())),
			logger.String("version", app.Store.Version()))
	}

	server, err := api.New(settings, app.Service, api.WithMetrics(app.Metrics))
	if err != nil {
		return err
	}

	var endpoint *observability.Endpoint
	if settings.Telemetry.Enabled {
		endpoint, err = observability.NewEndpoint(settings, app.Metrics)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	if endpoint != nil {
		g.Go(func() error {
			return endpoint.Start(gctx)
		})
	}

	log.Info("tagtrack serving",
		logger.String("listen", settings.WebServer.Listen),
		logger.Bool("telemetry", settings.Telemetry.Enabled))

	return g.Wait()
}
