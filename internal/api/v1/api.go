// Package v1 implements the tagtrack JSON API under /api/v1.
package v1

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/tagtrack/internal/analytics"
	"github.com/tphakala/tagtrack/internal/conf"
	"github.com/tphakala/tagtrack/internal/datastore"
	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/errors"
	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/service"
)

// Prefix is the route prefix of every endpoint in this package.
const Prefix = "/api/v1"

// AnalyticsService is the analytics surface served by the controller.
type AnalyticsService interface {
	Tags(ctx context.Context) ([]detection.TagInfo, error)
	Summary(ctx context.Context, tag string) (analytics.Summary, error)
	Detections(ctx context.Context, tag string) ([]analytics.SpeedRecord, error)
	Outliers(ctx context.Context, tag string, threshold float64) ([]analytics.SpeedRecord, error)
	Residency(ctx context.Context, tag, pattern string) (float64, error)
	Efficiency(ctx context.Context, tag string) (analytics.Curve, error)
	StationHits(ctx context.Context, tag string) ([]analytics.StationHit, error)
	Export(ctx context.Context, tag string, w io.Writer) error
	Arrivals(ctx context.Context, pattern string) (analytics.Histogram, error)
	Reload(ctx context.Context) (*detection.Table, error)
	Version() string
}

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Service  AnalyticsService
	Settings *conf.Settings
	log      logger.Logger
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates the API controller and registers its routes on e.
func New(e *echo.Echo, svc AnalyticsService, settings *conf.Settings, opts ...Option) *Controller {
	c := &Controller{
		Echo:     e,
		Service:  svc,
		Settings: settings,
		log:      logger.Global().Module("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group = c.Echo.Group(Prefix)

	c.Group.GET("/tags", c.GetTags)
	tags := c.Group.Group("/tags/:tag")
	tags.GET("/summary", c.GetSummary)
	tags.GET("/detections", c.GetDetections)
	tags.GET("/outliers", c.GetOutliers)
	tags.GET("/residency", c.GetResidency)
	tags.GET("/efficiency", c.GetEfficiency)
	tags.GET("/stations", c.GetStationHits)
	tags.GET("/export.csv", c.ExportCSV)

	c.Group.GET("/analytics/arrivals", c.GetArrivals)
	c.Group.POST("/reload", c.Reload)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString(),
	}
}

// StatusFor maps an error from the analytics service to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTagNotFound), errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.Is(err, analytics.ErrEmptyTrack):
		return http.StatusUnprocessableEntity
	case errors.Is(err, datastore.ErrDataLoad),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as an ErrorResponse with the given status and logs it
// under a fresh correlation ID.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
		logger.Error(err),
	}
	if code >= http.StatusInternalServerError {
		c.log.Error("API error", fields...)
	} else {
		c.log.Warn("API error", fields...)
	}

	return ctx.JSON(code, resp)
}

// handleServiceError maps err with StatusFor and writes it.
func (c *Controller) handleServiceError(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, StatusFor(err))
}

// Debug logs a debug message when the web server runs in debug mode.
func (c *Controller) Debug(msg string, fields ...logger.Field) {
	if c.Settings != nil && (c.Settings.WebServer.Debug || c.Settings.Debug) {
		c.log.Debug(msg, fields...)
	}
}
