package mapbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	forwardCalls atomic.Int32
	result       domain.GeocodingResult
	err          error
	delay        time.Duration
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	m.forwardCalls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.result, m.err
}

// gatedGeocoder blocks every call until release is closed or its context ends.
type gatedGeocoder struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	select {
	case <-g.release:
		return domain.GeocodingResult{FormattedAddress: query}, nil
	case <-ctx.Done():
		return domain.GeocodingResult{}, ctx.Err()
	}
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_ForwardCacheHit(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{Lat: 42.01, Lon: -93.21, FormattedAddress: "Iowa, United States"}}
	metrics := testMetrics()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ForwardGeocode(context.Background(), "Iowa")
	require.NoError(t, err)
	r2, err := cached.ForwardGeocode(context.Background(), "  IOWA ")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, int32(1), inner.forwardCalls.Load())
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ForwardGeocode(context.Background(), "Atlantis")
	_, _ = cached.ForwardGeocode(context.Background(), "Atlantis")

	assert.Equal(t, int32(2), inner.forwardCalls.Load())
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("upstream down")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ForwardGeocode(context.Background(), "Guam")
	require.Error(t, err)
	_, err = cached.ForwardGeocode(context.Background(), "Guam")
	require.Error(t, err)

	assert.Equal(t, int32(2), inner.forwardCalls.Load())
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "somewhere"}}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ForwardGeocode(context.Background(), "Guam")
	_, _ = cached.ForwardGeocode(context.Background(), "Puerto Rico")

	assert.Equal(t, int32(2), inner.forwardCalls.Load())
}

func TestCachedGeocoder_ConcurrentMissesShareCall(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{FormattedAddress: "Guam"},
		delay:  50 * time.Millisecond,
	}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := cached.ForwardGeocode(context.Background(), "Guam")
			assert.NoError(t, err)
			assert.Equal(t, "Guam", r.FormattedAddress)
		}()
	}
	wg.Wait()

	assert.Less(t, inner.forwardCalls.Load(), int32(8))
}

func TestCachedGeocoder_CancelledCallerDoesNotFailSharedCall(t *testing.T) {
	inner := &gatedGeocoder{started: make(chan struct{}), release: make(chan struct{})}
	metrics := testMetrics()
	cached := NewCachedGeocoder(inner, 10, metrics)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cached.ForwardGeocode(firstCtx, "Guam")
		firstErr <- err
	}()
	<-inner.started

	type outcome struct {
		result domain.GeocodingResult
		err    error
	}
	second := make(chan outcome, 1)
	go func() {
		r, err := cached.ForwardGeocode(context.Background(), "Guam")
		second <- outcome{r, err}
	}()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")) == 2
	}, time.Second, time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(inner.release)
	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, "Guam", got.result.FormattedAddress)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), inner.calls.Load())

	// The detached call still populated the cache.
	_, ok := cached.cache.get("fwd:guam")
	assert.True(t, ok)
}

// --- lruCache tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.PlaceName)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})
	c.put("c", domain.GeocodingResult{PlaceName: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result.PlaceName)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})
	c.get("a")
	c.put("c", domain.GeocodingResult{PlaceName: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}
