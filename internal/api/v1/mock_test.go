package v1

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/tphakala/tagtrack/internal/analytics"
	"github.com/tphakala/tagtrack/internal/detection"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Tags(ctx context.Context) ([]detection.TagInfo, error) {
	args := m.Called(ctx)
	tags, _ := args.Get(0).([]detection.TagInfo)
	return tags, args.Error(1)
}

func (m *mockService) Summary(ctx context.Context, tag string) (analytics.Summary, error) {
	args := m.Called(ctx, tag)
	s, _ := args.Get(0).(analytics.Summary)
	return s, args.Error(1)
}

func (m *mockService) Detections(ctx context.Context, tag string) ([]analytics.SpeedRecord, error) {
	args := m.Called(ctx, tag)
	recs, _ := args.Get(0).([]analytics.SpeedRecord)
	return recs, args.Error(1)
}

func (m *mockService) Outliers(ctx context.Context, tag string, threshold float64) ([]analytics.SpeedRecord, error) {
	args := m.Called(ctx, tag, threshold)
	recs, _ := args.Get(0).([]analytics.SpeedRecord)
	return recs, args.Error(1)
}

func (m *mockService) Residency(ctx context.Context, tag, pattern string) (float64, error) {
	args := m.Called(ctx, tag, pattern)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockService) Efficiency(ctx context.Context, tag string) (analytics.Curve, error) {
	args := m.Called(ctx, tag)
	curve, _ := args.Get(0).(analytics.Curve)
	return curve, args.Error(1)
}

func (m *mockService) StationHits(ctx context.Context, tag string) ([]analytics.StationHit, error) {
	args := m.Called(ctx, tag)
	hits, _ := args.Get(0).([]analytics.StationHit)
	return hits, args.Error(1)
}

func (m *mockService) Export(ctx context.Context, tag string, w io.Writer) error {
	args := m.Called(ctx, tag, w)
	if body, ok := args.Get(0).(string); ok && body != "" {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(1)
}

func (m *mockService) Arrivals(ctx context.Context, pattern string) (analytics.Histogram, error) {
	args := m.Called(ctx, pattern)
	h, _ := args.Get(0).(analytics.Histogram)
	return h, args.Error(1)
}

func (m *mockService) Reload(ctx context.Context) (*detection.Table, error) {
	args := m.Called(ctx)
	table, _ := args.Get(0).(*detection.Table)
	return table, args.Error(1)
}

func (m *mockService) Version() string {
	return m.Called().String(0)
}
