package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tagtrack/internal/logger"
	"github.com/tphakala/tagtrack/internal/observability/metrics"
)

func newTestMemo(t *testing.T, ttl time.Duration) *Memo {
	t.Helper()
	m, err := metrics.NewCacheMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return New(ttl, 0, WithMetrics(m), WithLogger(logger.NewNopLogger()))
}

func TestKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "residency|v1|T1|HFX", Key("residency", "T1", "v1", "HFX"))
	assert.NotEqual(t, Key("summary", "T1", "v1"), Key("summary", "T1", "v2"))
}

func TestGetOrCompute_CachesValue(t *testing.T) {
	t.Parallel()
	memo := newTestMemo(t, time.Minute)

	calls := 0
	compute := func() (float64, error) {
		calls++
		return 60.0, nil
	}

	for range 3 {
		v, err := GetOrCompute(memo, "residency", Key("residency", "T1", "v1"), compute)
		require.NoError(t, err)
		assert.InDelta(t, 60.0, v, 0)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, memo.Len())

	// a new version is a different key
	_, err := GetOrCompute(memo, "residency", Key("residency", "T1", "v2"), compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetOrCompute_CachesErrorWithValue(t *testing.T) {
	t.Parallel()
	memo := newTestMemo(t, time.Minute)

	sentinel := errors.New("degenerate")
	calls := 0
	compute := func() ([]int, error) {
		calls++
		return []int{1}, sentinel
	}

	for range 2 {
		v, err := GetOrCompute(memo, "efficiency", "k", compute)
		require.ErrorIs(t, err, sentinel)
		assert.Equal(t, []int{1}, v)
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrCompute_TypeMismatchRecomputes(t *testing.T) {
	t.Parallel()
	memo := newTestMemo(t, time.Minute)

	_, _ = GetOrCompute(memo, "x", "k", func() (int, error) { return 1, nil })
	v, err := GetOrCompute(memo, "x", "k", func() (string, error) { return "one", nil })
	require.NoError(t, err)
	assert.Equal(t, "one", v)
}

func TestFlush(t *testing.T) {
	t.Parallel()
	memo := newTestMemo(t, 0)

	_, _ = GetOrCompute(memo, "x", "a", func() (int, error) { return 1, nil })
	_, _ = GetOrCompute(memo, "x", "b", func() (int, error) { return 2, nil })
	require.Equal(t, 2, memo.Len())

	memo.Flush()
	assert.Zero(t, memo.Len())
}

func TestExpiry(t *testing.T) {
	t.Parallel()
	memo := newTestMemo(t, 20*time.Millisecond)

	calls := 0
	compute := func() (int, error) {
		calls++
		return calls, nil
	}
	_, _ = GetOrCompute(memo, "x", "k", compute)
	time.Sleep(40 * time.Millisecond)
	v, _ := GetOrCompute(memo, "x", "k", compute)
	assert.Equal(t, 2, v)
}
