package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/tagtrack/internal/analytics"
	"github.com/tphakala/tagtrack/internal/logger"
)

// ArrivalsResponse is the body of GET /analytics/arrivals.
type ArrivalsResponse struct {
	Pattern string `json:"pattern"`
	Total   int    `json:"total"`
	analytics.Histogram
}

// ReloadResponse is the body of POST /reload.
type ReloadResponse struct {
	Status   string    `json:"status"`
	Records  int       `json:"records"`
	Tags     int       `json:"tags"`
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
}

// GetArrivals handles GET /api/v1/analytics/arrivals?pattern=.
func (c *Controller) GetArrivals(ctx echo.Context) error {
	pattern := c.patternParam(ctx, c.arrivalPattern())

	h, err := c.Service.Arrivals(ctx.Request().Context(), pattern)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to build arrival histogram")
	}
	return ctx.JSON(http.StatusOK, ArrivalsResponse{
		Pattern:   pattern,
		Total:     h.Total(),
		Histogram: h,
	})
}

// Reload handles POST /api/v1/reload: it drops cached results and re-reads the source.
func (c *Controller) Reload(ctx echo.Context) error {
	table, err := c.Service.Reload(ctx.Request().Context())
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to reload detections")
	}

	resp := ReloadResponse{
		Status:   "reloaded",
		Records:  table.Len(),
		Tags:     len(table.Tags()),
		Version:  c.Service.Version(),
		LoadedAt: time.Now().UTC(),
	}
	c.log.Info("detections reloaded via API",
		logger.Int("records", resp.Records),
		logger.Int("tags", resp.Tags),
		logger.String("ip", ctx.RealIP()))
	return ctx.JSON(http.StatusOK, resp)
}
