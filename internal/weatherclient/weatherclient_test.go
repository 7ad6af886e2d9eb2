package weatherclient

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
)

type fakeSource struct {
	calls int32
}

func (f *fakeSource) FetchBatchAtTime(ctx context.Context, queries []ports.WeatherQuery) (map[int]domain.WeatherObservation, error) {
	atomic.AddInt32(&f.calls, 1)
	out := make(map[int]domain.WeatherObservation, len(queries))
	for _, q := range queries {
		out[q.Idx] = domain.WeatherObservation{WindSpeedKt: 10, WindDirDeg: 90, WaveHeightM: 1, WaveDirDeg: 90, WavePeriodS: 6}
	}
	return out, nil
}

func newTestClient(t *testing.T, src ports.WeatherSource) *Client {
	t.Helper()
	c, err := New(src, Nop{}, 128, 100, 10, 0.01, 15)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestFetchBatchCallsSourceOnMiss(t *testing.T) {
	src := &fakeSource{}
	c := newTestClient(t, src)

	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	pts := []domain.TimeAwareWeatherPoint{
		{WeatherPoint: domain.WeatherPoint{Idx: 0, Lat: 54.3, Lon: 18.5}, ETA: now},
		{WeatherPoint: domain.WeatherPoint{Idx: 1, Lat: 54.31, Lon: 18.51}, ETA: now},
	}
	out, err := c.FetchBatch(context.Background(), pts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(out))
	}
	if atomic.LoadInt32(&src.calls) == 0 {
		t.Error("expected the source to be hit on a cold cache")
	}
}

func TestFetchBatchSecondCallHitsCache(t *testing.T) {
	src := &fakeSource{}
	c := newTestClient(t, src)

	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	pts := []domain.TimeAwareWeatherPoint{
		{WeatherPoint: domain.WeatherPoint{Idx: 0, Lat: 54.3, Lon: 18.5}, ETA: now},
	}
	if _, err := c.FetchBatch(context.Background(), pts); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	callsAfterFirst := atomic.LoadInt32(&src.calls)

	if _, err := c.FetchBatch(context.Background(), pts); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if atomic.LoadInt32(&src.calls) != callsAfterFirst {
		t.Error("expected the second identical fetch to be served entirely from cache")
	}
	if c.Stats().CacheHits == 0 {
		t.Error("expected at least one cache hit recorded")
	}
}

func TestFetchBatchGroupsNearbyPointsIntoOneCall(t *testing.T) {
	src := &fakeSource{}
	c := newTestClient(t, src)

	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	pts := []domain.TimeAwareWeatherPoint{
		{WeatherPoint: domain.WeatherPoint{Idx: 0, Lat: 54.300001, Lon: 18.500001}, ETA: now.Add(1 * time.Minute)},
		{WeatherPoint: domain.WeatherPoint{Idx: 1, Lat: 54.300002, Lon: 18.500002}, ETA: now.Add(2 * time.Minute)},
	}
	if _, err := c.FetchBatch(context.Background(), pts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&src.calls) != 1 {
		t.Errorf("expected points rounding to the same grid cell and eta bucket to share one upstream call, got %d calls", src.calls)
	}
}

func TestCacheKeyRoundsCoordinatesAndTime(t *testing.T) {
	c := newTestClient(t, &fakeSource{})
	t1 := time.Date(2026, 7, 1, 12, 1, 0, 0, time.UTC)
	t2 := time.Date(2026, 7, 1, 12, 2, 0, 0, time.UTC)
	k1 := c.cacheKey(54.30001, 18.50001, t1)
	k2 := c.cacheKey(54.30002, 18.50002, t2)
	if k1 != k2 {
		t.Errorf("expected nearby coordinates/times within the same grid cell and round window to share a cache key, got %q vs %q", k1, k2)
	}
}

func TestRoundUpMovesForwardToBoundary(t *testing.T) {
	in := time.Date(2026, 7, 1, 12, 1, 0, 0, time.UTC)
	out := roundUp(in, 15)
	if out.Minute() != 15 {
		t.Errorf("expected round-up to the next 15-minute boundary, got %v", out)
	}
}
