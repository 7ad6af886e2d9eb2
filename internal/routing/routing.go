// Package routing is the top-level orchestrator of §6: it turns one
// route request into a water polygon, mesh and weather-point layout
// (built once), then evaluates every departure-window variant's time-aware
// ETA loop (internal/eta) concurrently with golang.org/x/sync/errgroup,
// persists each profile and its forecast, and assembles the final
// multi-variant response.
package routing

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/config"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/eta"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/geo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/mesh"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routeerr"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/water"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/weatherclient"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/weatherpoints"
)

const (
	meshMinAngleDeg  = 25 // §4.3 invariant
	dedupRadiusM     = 100
	bathyResDeg      = 0.02
	detourAreaCapM2  = 5_000_000
	weatherCacheSize = 4096
	weatherRPS       = 8
	weatherBurst     = 4
)

// DepartureWindow samples NumSamples evenly-spaced departure times between
// Start and End inclusive (§6 departure_window, 1..10 samples).
type DepartureWindow struct {
	Start, End time.Time
	NumSamples int
}

// Request is one routing request (§6 Inputs).
type Request struct {
	ControlPoints       []domain.ControlPoint
	YachtID             string
	CorridorNM          float64
	RingRadiiM          [3]float64
	AreaCapsM2          [3]float64
	ShorelineAvoidM     float64
	WeatherPointsBudget *int
	DepartureWindow     *DepartureWindow
}

// Deps bundles the external collaborators a Plan call needs (ports §6).
type Deps struct {
	Land    ports.LandPolygonSource
	Bathy   ports.BathymetrySource
	Weather ports.WeatherSource
	Yachts  ports.YachtRepository
	Routes  ports.RouteRepository
	Forecasts ports.WeatherRepository
}

// SegmentResponse is one merged segment of a variant's route, in WGS84.
type SegmentResponse struct {
	FromLat, FromLon float64
	ToLat, ToLon     float64
	DistanceNM       float64
	BearingDeg       float64
	BoatSpeedKt      float64
	TWADeg           float64
	WaveHeightM      float64
	StartTime        time.Time
	EndTime          time.Time
	Maneuver         string
}

// VariantResponse is one departure-time variant's routed profile (§6
// Output variants[]).
type VariantResponse struct {
	DepartureTime     time.Time
	WaypointsWGS84     [][2]float64 // [lat, lon]
	Segments           []SegmentResponse
	TotalTimeHours     float64
	TotalDistanceNM    float64
	AverageSpeedKnots  float64
	TacksCount         int
	JibesCount         int
	DifficultyScore    float64
	Converged          bool
	Iterations         int
}

// WeatherStats mirrors weatherclient.Stats for the response (§6).
type WeatherStats struct {
	TotalRequests int
	CacheHits     int
	APICalls      int
}

// Response is the full multi-variant routing result (§6 Output).
type Response struct {
	Variants         []VariantResponse
	BestVariantIndex int
	WeatherStats     WeatherStats
}

// Plan executes the full pipeline: build water/mesh/weather-points once,
// then evaluate every departure-time variant against them, persisting
// each profile and its forecast before returning the assembled response.
func Plan(ctx context.Context, deps Deps, req Request, cfg config.Config) (*Response, error) {
	if len(req.ControlPoints) < 2 {
		return nil, routeerr.New(routeerr.KindInvalidInput, "at least two control points are required")
	}

	yacht, err := deps.Yachts.ByID(ctx, req.YachtID)
	if err != nil {
		return nil, routeerr.Wrap(routeerr.KindInvalidInput, "yacht lookup failed", err)
	}

	wCfg := water.Config{
		CorridorNM:      firstPositive(req.CorridorNM, cfg.CorridorNM),
		DraftM:          yacht.DraftM,
		ClearanceM:      firstPositive(req.ShorelineAvoidM, cfg.ShorelineAvoidM),
		BathyResDeg:     bathyResDeg,
		DetourAreaCapM2: detourAreaCapM2,
	}
	wres, err := water.Build(ctx, req.ControlPoints, wCfg, deps.Land, deps.Bathy)
	if err != nil {
		return nil, err
	}
	if wres.Degenerate {
		return degenerateResponse(req, wres), nil
	}

	cfg = config.ApplyRegionalOverride(cfg, wres.Frame.OriginLat, wres.Frame.OriginLon)

	ringRadii := req.RingRadiiM
	if ringRadii == ([3]float64{}) {
		ringRadii = [3]float64{cfg.Rings.NearM, cfg.Rings.MidM, cfg.Rings.FarM}
	}
	areaCaps := req.AreaCapsM2
	if areaCaps == ([3]float64{}) {
		areaCaps = [3]float64{cfg.Caps.NearM2, cfg.Caps.MidM2, cfg.Caps.FarM2}
	}
	if err := validateRings(ringRadii, areaCaps); err != nil {
		return nil, err
	}
	meshCfg := mesh.Config{
		RingRadiiM:  ringRadii,
		AreaCapsM2:  areaCaps,
		CoastClearM: cfg.CoastClearM,
		MinAngleDeg: meshMinAngleDeg,
	}
	m := mesh.Build(wres.Water, wres.Polyline, meshCfg)
	if len(m.Vertices) == 0 {
		return nil, routeerr.New(routeerr.KindMeshingFailed, "mesh build produced no vertices")
	}

	budget := cfg.WeatherPointBudget
	if req.WeatherPointsBudget != nil {
		if *req.WeatherPointsBudget <= 0 {
			return nil, routeerr.New(routeerr.KindInvalidInput, "weather_points_budget must be positive")
		}
		budget = *req.WeatherPointsBudget
	}
	points := weatherpoints.Select(m, weatherpoints.Config{
		Budget:       budget,
		DedupRadiusM: dedupRadiusM,
		DMaxM:        cfg.DMaxM,
	})
	if len(points) == 0 {
		return nil, routeerr.New(routeerr.KindInvalidInput, "no weather points could be selected for this route")
	}
	assign := weatherpoints.AssignVertices(m.Vertices, points, cfg.DMaxM)

	wx, err := weatherclient.New(deps.Weather, weatherclient.Nop{}, weatherCacheSize, weatherRPS, weatherBurst, cfg.ETA.CoordGridSize, cfg.ETA.TimeRoundMinutes)
	if err != nil {
		return nil, routeerr.Wrap(routeerr.KindWeatherFetchFailed, "failed to build weather client", err)
	}

	departures := departureTimes(req.DepartureWindow)

	results := make([]*eta.Result, len(departures))
	g, gctx := errgroup.WithContext(ctx)
	for i, dep := range departures {
		i, dep := i, dep
		g.Go(func() error {
			res, err := eta.Run(gctx, wres.Frame, m, wres.Polyline, yacht, wx, points, assign, dep, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	variants := make([]VariantResponse, len(results))
	bestIdx := 0
	bestDuration := math.Inf(1)
	for i, res := range results {
		profile := res.Profile
		profile.ID = uuid.NewString()

		if err := deps.Routes.SaveProfile(ctx, profile); err != nil {
			return nil, routeerr.Wrap(routeerr.KindTransient, "failed to persist route profile", err)
		}
		for idx, obs := range res.WeatherObservations {
			if err := deps.Forecasts.SaveForecast(ctx, idx, profile.DepartureTime, obs); err != nil {
				return nil, routeerr.Wrap(routeerr.KindTransient, "failed to persist forecast", err)
			}
		}

		variants[i] = toVariantResponse(wres.Frame, profile)

		// the best variant is the fastest one that converged; if none
		// converged, fastest overall is used as a conservative fallback.
		better := (profile.Converged && (!results[bestIdx].Profile.Converged || profile.TotalDurationS < bestDuration)) ||
			(!results[bestIdx].Profile.Converged && profile.TotalDurationS < bestDuration)
		if i == 0 || better {
			bestIdx = i
			bestDuration = profile.TotalDurationS
		}
	}

	stats := wx.Stats()
	return &Response{
		Variants:         variants,
		BestVariantIndex: bestIdx,
		WeatherStats: WeatherStats{
			TotalRequests: stats.TotalRequests,
			CacheHits:     stats.CacheHits,
			APICalls:      stats.APICalls,
		},
	}, nil
}

// degenerateResponse builds the §8 zero-segment profile for a route whose
// start and goal coincide within 1 m: one variant per requested departure
// sample, each with no segments, zero distance and a trivial single
// converged iteration.
func degenerateResponse(req Request, wres *water.Result) *Response {
	lat0, lon0 := geo.UnprojectPoint(wres.Frame, wres.Polyline[0])
	lat1, lon1 := geo.UnprojectPoint(wres.Frame, wres.Polyline[1])

	departures := departureTimes(req.DepartureWindow)
	variants := make([]VariantResponse, len(departures))
	for i, dep := range departures {
		variants[i] = VariantResponse{
			DepartureTime:  dep,
			WaypointsWGS84: [][2]float64{{lat0, lon0}, {lat1, lon1}},
			Segments:       []SegmentResponse{},
			Converged:      true,
			Iterations:     1,
		}
	}
	return &Response{Variants: variants, BestVariantIndex: 0}
}

// departureTimes expands a DepartureWindow into its evenly-spaced sample
// instants, or a single "now" departure when no window was requested.
func departureTimes(w *DepartureWindow) []time.Time {
	if w == nil || w.NumSamples <= 1 {
		if w != nil {
			return []time.Time{w.Start}
		}
		return []time.Time{time.Now().UTC()}
	}
	n := w.NumSamples
	if n > 10 {
		n = 10
	}
	span := w.End.Sub(w.Start)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n-1)
		out[i] = w.Start.Add(time.Duration(float64(span) * frac))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func toVariantResponse(frame domain.LocalFrame, profile domain.RouteProfile) VariantResponse {
	segs := make([]SegmentResponse, len(profile.Segments))
	var tacks, jibes int
	for i, s := range profile.Segments {
		fromLat, fromLon := geo.UnprojectPoint(frame, s.From)
		toLat, toLon := geo.UnprojectPoint(frame, s.To)
		segs[i] = SegmentResponse{
			FromLat: fromLat, FromLon: fromLon,
			ToLat: toLat, ToLon: toLon,
			DistanceNM:  s.DistanceM / 1852.0,
			BearingDeg:  s.BearingDeg,
			BoatSpeedKt: s.BoatSpeedMS / 0.514444,
			TWADeg:      s.TWADeg,
			WaveHeightM: s.WaveHeightM,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			Maneuver:    maneuverString(s),
		}
		if s.HasTack {
			tacks++
		}
		if s.HasJibe {
			jibes++
		}
	}

	waypoints := make([][2]float64, 0, len(profile.Segments)+1)
	if len(profile.Segments) > 0 {
		lat, lon := geo.UnprojectPoint(frame, profile.Segments[0].From)
		waypoints = append(waypoints, [2]float64{lat, lon})
		for _, s := range profile.Segments {
			lat, lon := geo.UnprojectPoint(frame, s.To)
			waypoints = append(waypoints, [2]float64{lat, lon})
		}
	}

	totalHours := profile.TotalDurationS / 3600.0
	avgSpeedKt := 0.0
	if totalHours > 0 {
		avgSpeedKt = (profile.TotalDistanceM / 1852.0) / totalHours
	}

	return VariantResponse{
		DepartureTime:     profile.DepartureTime,
		WaypointsWGS84:    waypoints,
		Segments:          segs,
		TotalTimeHours:    totalHours,
		TotalDistanceNM:   profile.TotalDistanceM / 1852.0,
		AverageSpeedKnots: avgSpeedKt,
		TacksCount:        tacks,
		JibesCount:        jibes,
		DifficultyScore:   profile.DifficultyScore,
		Converged:         profile.Converged,
		Iterations:        profile.Iterations,
	}
}

func maneuverString(s domain.Segment) string {
	switch {
	case s.HasTack:
		return "TACK"
	case s.HasJibe:
		return "JIBE"
	default:
		return "NONE"
	}
}

func firstPositive(vs ...float64) float64 {
	for _, v := range vs {
		if v > 0 {
			return v
		}
	}
	return 0
}

// validateRings enforces §3/§4.3's ring-radius and area-cap ordering:
// radii must be non-negative and strictly increasing (near < mid < far),
// area caps must be non-negative and non-decreasing (near <= mid <= far).
func validateRings(radii, caps [3]float64) error {
	for _, r := range radii {
		if r < 0 {
			return routeerr.New(routeerr.KindInvalidInput, "ring radii must be non-negative")
		}
	}
	if !(radii[0] < radii[1] && radii[1] < radii[2]) {
		return routeerr.New(routeerr.KindInvalidInput, "ring radii must be strictly increasing (near < mid < far)")
	}
	for _, a := range caps {
		if a < 0 {
			return routeerr.New(routeerr.KindInvalidInput, "area caps must be non-negative")
		}
	}
	if !(caps[0] <= caps[1] && caps[1] <= caps[2]) {
		return routeerr.New(routeerr.KindInvalidInput, "area caps must be non-decreasing (near <= mid <= far)")
	}
	return nil
}
