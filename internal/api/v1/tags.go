package v1

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/tagtrack/internal/analytics"
	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/errors"
	"github.com/tphakala/tagtrack/internal/export"
	"github.com/tphakala/tagtrack/internal/logger"
)

// TagsResponse lists the tags in the loaded table.
type TagsResponse struct {
	Tags    []detection.TagInfo `json:"tags"`
	Count   int                 `json:"count"`
	Version string              `json:"version"`
}

// ResidencyResponse is the body of GET /tags/:tag/residency.
type ResidencyResponse struct {
	TagID     string  `json:"tagname"`
	Pattern   string  `json:"pattern"`
	Residency float64 `json:"residency"`
}

// DetectionsResponse carries an annotated track or its outliers.
type DetectionsResponse struct {
	TagID      string                  `json:"tagname"`
	Count      int                     `json:"count"`
	Threshold  float64                 `json:"threshold,omitempty"`
	Detections []analytics.SpeedRecord `json:"detections"`
}

// StationHitsResponse is the per-station hit distribution of a tag.
type StationHitsResponse struct {
	TagID    string                 `json:"tagname"`
	Stations []analytics.StationHit `json:"stations"`
}

// GetTags handles GET /api/v1/tags.
func (c *Controller) GetTags(ctx echo.Context) error {
	tags, err := c.Service.Tags(ctx.Request().Context())
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to load tags")
	}
	return ctx.JSON(http.StatusOK, TagsResponse{
		Tags:    tags,
		Count:   len(tags),
		Version: c.Service.Version(),
	})
}

// GetSummary handles GET /api/v1/tags/:tag/summary.
func (c *Controller) GetSummary(ctx echo.Context) error {
	tag := tagParam(ctx)
	summary, err := c.Service.Summary(ctx.Request().Context(), tag)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to summarize tag")
	}
	return ctx.JSON(http.StatusOK, summary)
}

// GetDetections handles GET /api/v1/tags/:tag/detections.
func (c *Controller) GetDetections(ctx echo.Context) error {
	tag := tagParam(ctx)
	annotated, err := c.Service.Detections(ctx.Request().Context(), tag)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to load detections")
	}
	return ctx.JSON(http.StatusOK, DetectionsResponse{
		TagID:      tag,
		Count:      len(annotated),
		Detections: annotated,
	})
}

// GetOutliers handles GET /api/v1/tags/:tag/outliers?threshold=.
func (c *Controller) GetOutliers(ctx echo.Context) error {
	tag := tagParam(ctx)
	threshold, err := c.thresholdParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid speed threshold", http.StatusBadRequest)
	}

	outliers, err := c.Service.Outliers(ctx.Request().Context(), tag, threshold)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to flag speed outliers")
	}
	return ctx.JSON(http.StatusOK, DetectionsResponse{
		TagID:      tag,
		Count:      len(outliers),
		Threshold:  threshold,
		Detections: outliers,
	})
}

// GetResidency handles GET /api/v1/tags/:tag/residency?pattern=.
func (c *Controller) GetResidency(ctx echo.Context) error {
	tag := tagParam(ctx)
	pattern := c.patternParam(ctx, c.residencyPattern())

	pct, err := c.Service.Residency(ctx.Request().Context(), tag, pattern)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to compute residency")
	}
	return ctx.JSON(http.StatusOK, ResidencyResponse{
		TagID:     tag,
		Pattern:   pattern,
		Residency: pct,
	})
}

// GetEfficiency handles GET /api/v1/tags/:tag/efficiency. A single-station track
// yields a curve flagged as degenerate rather than an error.
func (c *Controller) GetEfficiency(ctx echo.Context) error {
	tag := tagParam(ctx)
	curve, err := c.Service.Efficiency(ctx.Request().Context(), tag)
	if err != nil && !errors.Is(err, analytics.ErrDegenerateCurve) {
		return c.handleServiceError(ctx, err, "Failed to compute detection efficiency")
	}
	if curve.Degenerate {
		c.Debug("degenerate efficiency curve", logger.String("tag_id", tag))
	}
	return ctx.JSON(http.StatusOK, curve)
}

// GetStationHits handles GET /api/v1/tags/:tag/stations.
func (c *Controller) GetStationHits(ctx echo.Context) error {
	tag := tagParam(ctx)
	hits, err := c.Service.StationHits(ctx.Request().Context(), tag)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to count station hits")
	}
	return ctx.JSON(http.StatusOK, StationHitsResponse{TagID: tag, Stations: hits})
}

// ExportCSV handles GET /api/v1/tags/:tag/export.csv. The file is rendered in memory
// so a failure still produces a JSON error.
func (c *Controller) ExportCSV(ctx echo.Context) error {
	tag := tagParam(ctx)

	var buf bytes.Buffer
	if err := c.Service.Export(ctx.Request().Context(), tag, &buf); err != nil {
		return c.handleServiceError(ctx, err, "Failed to export detections")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.FileName(tag)))
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func tagParam(ctx echo.Context) string {
	return strings.TrimSpace(ctx.Param("tag"))
}

// patternParam returns the pattern query parameter, or fallback when absent.
func (c *Controller) patternParam(ctx echo.Context, fallback string) string {
	if p := ctx.QueryParam("pattern"); p != "" {
		return p
	}
	return fallback
}

// thresholdParam parses the threshold query parameter in m/s. An absent parameter
// yields the configured default.
func (c *Controller) thresholdParam(ctx echo.Context) (float64, error) {
	raw := strings.TrimSpace(ctx.QueryParam("threshold"))
	if raw == "" {
		return c.speedThreshold(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Newf("threshold must be a positive number of m/s, got %q", raw).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return v, nil
}

func (c *Controller) residencyPattern() string {
	if c.Settings != nil && c.Settings.Analytics.ResidencyPattern != "" {
		return c.Settings.Analytics.ResidencyPattern
	}
	return analytics.DefaultResidencyPattern
}

func (c *Controller) arrivalPattern() string {
	if c.Settings != nil && c.Settings.Analytics.ArrivalPattern != "" {
		return c.Settings.Analytics.ArrivalPattern
	}
	return analytics.DefaultResidencyPattern
}

func (c *Controller) speedThreshold() float64 {
	if c.Settings != nil && c.Settings.Analytics.SpeedThreshold > 0 {
		return c.Settings.Analytics.SpeedThreshold
	}
	return analytics.DefaultSpeedThreshold
}
