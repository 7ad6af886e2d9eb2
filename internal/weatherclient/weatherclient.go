// Package weatherclient wraps a ports.WeatherSource with the two-level
// cache and rate limiter §5 requires: an in-memory LRU tier backed
// by a pluggable second-tier cache (satisfied with a no-op in tests, a
// Redis-shaped adapter in production), and a token-bucket rate limiter
// protecting the upstream source. The per-group upstream fetches of one
// batch fan out concurrently with errgroup.
package weatherclient

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// SecondTier is the optional external cache behind the in-memory LRU
// (e.g. Redis); Nop satisfies it for tests and single-process runs.
type SecondTier interface {
	Get(ctx context.Context, key string) (domain.WeatherObservation, bool)
	Set(ctx context.Context, key string, obs domain.WeatherObservation)
}

// Nop is a SecondTier that never hits and never stores.
type Nop struct{}

func (Nop) Get(ctx context.Context, key string) (domain.WeatherObservation, bool) {
	return domain.WeatherObservation{}, false
}
func (Nop) Set(ctx context.Context, key string, obs domain.WeatherObservation) {}

// Stats counts requests/hits for the response's weather_stats block (§6).
type Stats struct {
	TotalRequests int
	CacheHits     int
	APICalls      int
}

// Client is the cached, rate-limited weather fetcher used by the ETA
// loop (C8).
type Client struct {
	src        ports.WeatherSource
	l1         *lru.Cache[string, domain.WeatherObservation]
	l2         SecondTier
	limiter    *rate.Limiter
	gridSize   float64 // degrees, cache-key spatial rounding (coord_grid_size)
	roundMins  int
	stats      Stats
}

// New builds a client with an in-memory LRU of the given size, an
// optional second tier (pass Nop{} if none), a token-bucket limiter
// (requestsPerSecond, burst), coordinate grid size in degrees, and the
// ETA time-rounding granularity in minutes.
func New(src ports.WeatherSource, l2 SecondTier, lruSize int, requestsPerSecond float64, burst int, gridSizeDeg float64, roundMinutes int) (*Client, error) {
	cache, err := lru.New[string, domain.WeatherObservation](lruSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		src:       src,
		l1:        cache,
		l2:        l2,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		gridSize:  gridSizeDeg,
		roundMins: roundMinutes,
	}, nil
}

// Stats returns a snapshot of the request/hit counters accumulated so far.
func (c *Client) Stats() Stats { return c.stats }

// point bundles one weather-point query with its owning index.
type point struct {
	Idx int
	Lat, Lon float64
	ETA      time.Time
}

// FetchBatch groups time-aware weather points by (grid(lat,lon),
// ceil(eta, round)) and issues one upstream request per group, fanning
// the groups out concurrently with errgroup while still honoring the
// shared rate limiter per group (§4.8 Step 2, §5).
func (c *Client) FetchBatch(ctx context.Context, points []domain.TimeAwareWeatherPoint) (map[int]domain.WeatherObservation, error) {
	out := make(map[int]domain.WeatherObservation, len(points))
	groups := make(map[string][]point)

	for _, p := range points {
		key := c.cacheKey(p.Lat, p.Lon, p.ETA)
		c.stats.TotalRequests++
		if obs, ok := c.l1.Get(key); ok {
			out[p.Idx] = obs
			c.stats.CacheHits++
			continue
		}
		if obs, ok := c.l2.Get(ctx, key); ok {
			out[p.Idx] = obs
			c.l1.Add(key, obs)
			c.stats.CacheHits++
			continue
		}
		groups[key] = append(groups[key], point{Idx: p.Idx, Lat: p.Lat, Lon: p.Lon, ETA: p.ETA})
	}

	if len(groups) == 0 {
		return out, nil
	}

	type result struct {
		key  string
		obs  map[int]domain.WeatherObservation
		err  error
	}
	resultsCh := make(chan result, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	for key, members := range groups {
		key, members := key, members
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return err
			}
			queries := make([]ports.WeatherQuery, len(members))
			for i, m := range members {
				queries[i] = ports.WeatherQuery{Idx: m.Idx, Lat: m.Lat, Lon: m.Lon, At: roundUp(m.ETA, c.roundMins)}
			}
			obs, err := c.src.FetchBatchAtTime(gctx, queries)
			resultsCh <- result{key: key, obs: obs, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultsCh)

	for r := range resultsCh {
		c.stats.APICalls++
		if r.err != nil {
			continue
		}
		for idx, o := range r.obs {
			out[idx] = o
			c.l1.Add(c.cacheKeyForIdx(groups[r.key], idx), o)
		}
	}
	return out, nil
}

func (c *Client) cacheKeyForIdx(members []point, idx int) string {
	for _, m := range members {
		if m.Idx == idx {
			return c.cacheKey(m.Lat, m.Lon, m.ETA)
		}
	}
	return ""
}

// cacheKey rounds (lat,lon) to the configured spatial grid and eta up to
// the next round-minutes boundary (§3 "Cache key rounds (lat,lon) to a
// spatial grid and eta up to the next quarter-hour boundary").
func (c *Client) cacheKey(lat, lon float64, eta time.Time) string {
	grid := c.gridSize
	if grid <= 0 {
		grid = 0.01
	}
	glat := math.Round(lat/grid) * grid
	glon := math.Round(lon/grid) * grid
	rounded := roundUp(eta, c.roundMins)
	return fmt.Sprintf("%.4f,%.4f@%d", glat, glon, rounded.Unix())
}

func roundUp(t time.Time, minutes int) time.Time {
	if minutes <= 0 {
		minutes = 15
	}
	d := time.Duration(minutes) * time.Minute
	rounded := t.Truncate(d)
	if rounded.Before(t) {
		rounded = rounded.Add(d)
	}
	return rounded
}
