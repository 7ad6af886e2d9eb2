// Package eta implements the time-aware ETA convergence loop of spec
// §4.8: seed each weather sample's ETA by straight-line projection,
// fetch the weather valid at that ETA, route the mesh under it, walk
// the resulting path's kinematics to get real transit times, then
// re-project every sample's ETA onto the new path and repeat until the
// largest ETA change drops below the convergence threshold or
// max_iterations is reached.
package eta

import (
	"context"
	"math"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/config"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/difficulty"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/geo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/polar"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/router"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routecost"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routeerr"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/segment"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/weatherclient"
)

const ktToMS = 0.514444

// Result is one departure-time variant's routed, scored profile plus the
// loop's final diagnostics.
type Result struct {
	Profile domain.RouteProfile
	// WeatherObservations is the last iteration's fetched observation per
	// weather-point index, for callers that persist the forecast actually
	// used (ports.WeatherRepository, §6).
	WeatherObservations map[int]domain.WeatherObservation
}

// Run executes the §4.8 loop for a single departure time over the
// already-built mesh and weather-point layout. frame is used once to
// resolve each weather point's WGS84 coordinates for the fetch.
func Run(
	ctx context.Context,
	frame domain.LocalFrame,
	m domain.Mesh,
	waypoints []domain.Point,
	y *domain.Yacht,
	wx *weatherclient.Client,
	points []domain.WeatherPoint,
	assign []int,
	departure time.Time,
	cfg config.Config,
) (*Result, error) {
	if len(waypoints) < 2 {
		return nil, routeerr.New(routeerr.KindInvalidInput, "at least two waypoints are required for ETA routing")
	}
	if len(points) == 0 {
		return nil, routeerr.New(routeerr.KindInvalidInput, "no weather points to route against")
	}

	withLatLon := make([]domain.WeatherPoint, len(points))
	for i, p := range points {
		lat, lon := geo.UnprojectPoint(frame, p.Point)
		p.Lat, p.Lon = lat, lon
		withLatLon[i] = p
	}

	taPoints := seedETAs(withLatLon, waypoints, departure, cfg.ETA.InitialSpeedKnots)

	weatherAtVertex := make([]domain.WeatherObservation, len(m.Vertices))
	navigable := make([]bool, len(m.Vertices))

	var (
		rawEdges              []domain.RawEdge
		edgeWindKt, edgeWindDir []float64
		lastMaxChange         float64
		converged             bool
		iterations            int
	)

	maxIter := cfg.ETA.MaxIterations
	if maxIter <= 0 {
		maxIter = 1
	}

	var lastObs map[int]domain.WeatherObservation

	for iterations = 0; iterations < maxIter; iterations++ {
		obsByIdx, err := wx.FetchBatch(ctx, taPoints)
		if err != nil {
			return nil, routeerr.Wrap(routeerr.KindWeatherFetchFailed, "weather fetch failed", err)
		}
		lastObs = obsByIdx
		applyWeather(weatherAtVertex, navigable, assign, obsByIdx)

		rg := router.Build(m, y, weatherAtVertex, navigable, cfg.DeadAngleDeg)

		legEdges, legWindKt, legWindDir, ok := routeAllLegs(rg, m, waypoints, y, weatherAtVertex, departure)
		if !ok {
			if iterations == maxIter-1 {
				return nil, routeerr.New(routeerr.KindNoRoute, "no route found within the ETA convergence loop")
			}
			continue
		}
		rawEdges, edgeWindKt, edgeWindDir = legEdges, legWindKt, legWindDir

		newTAPoints, maxChange := reprojectETAs(taPoints, rawEdges)
		taPoints = newTAPoints
		lastMaxChange = maxChange

		if maxChange < cfg.ETA.ConvergenceThresholdSeconds {
			converged = true
			iterations++
			break
		}
	}

	if len(rawEdges) == 0 {
		return nil, routeerr.New(routeerr.KindNoRoute, "no route could be computed")
	}

	segs := segment.Merge(rawEdges)
	waveHeights := make([]float64, len(segs))
	for i, s := range segs {
		waveHeights[i] = s.WaveHeightM
	}
	score, band := difficulty.Score(segs, edgeWindKt, edgeWindDir, waveHeights)

	profile := domain.RouteProfile{
		DepartureTime:     departure,
		Segments:          segs,
		TotalDistanceM:    totalDistance(segs),
		TotalDurationS:    totalDuration(segs),
		Iterations:        iterations,
		Converged:         converged,
		LastMaxETAChangeS: lastMaxChange,
		DifficultyScore:   score,
		DifficultyBand:    band,
	}
	return &Result{Profile: profile, WeatherObservations: lastObs}, nil
}

// routeAllLegs routes every consecutive pair of waypoints in order,
// chaining each leg's arrival time and heading into the next (§4.8 Step
// 4), then walks the kinematics of the full chained path (§4.8 Step 5).
func routeAllLegs(rg *router.Graph, m domain.Mesh, waypoints []domain.Point, y *domain.Yacht, weatherAtVertex []domain.WeatherObservation, departure time.Time) ([]domain.RawEdge, []float64, []float64, bool) {
	var allEdges []domain.RawEdge
	var allWindKt, allWindDir []float64

	var heading *routecost.Heading
	clock := departure

	for i := 0; i+1 < len(waypoints); i++ {
		startV := rg.Nearest(waypoints[i])
		goalV := rg.Nearest(waypoints[i+1])
		if startV < 0 || goalV < 0 {
			return nil, nil, nil, false
		}
		legPath, err := router.Route(rg, startV, goalV, heading)
		if err != nil {
			return nil, nil, nil, false
		}
		edges, windKt, windDir, endTime, endHeading := walkKinematics(m, legPath, weatherAtVertex, y, clock, heading)
		allEdges = append(allEdges, edges...)
		allWindKt = append(allWindKt, windKt...)
		allWindDir = append(allWindDir, windDir...)
		clock = endTime
		heading = &endHeading
	}
	return allEdges, allWindKt, allWindDir, true
}

// walkKinematics converts a mesh-vertex path into timed RawEdges by
// reusing the same edge-cost model the router searched with (dead-angle
// filtering disabled here since the router already rejected those
// edges), recording the wind observed at each edge's arrival vertex for
// the difficulty scorer.
func walkKinematics(m domain.Mesh, path []int, weatherAtVertex []domain.WeatherObservation, y *domain.Yacht, start time.Time, initialHeading *routecost.Heading) ([]domain.RawEdge, []float64, []float64, time.Time, routecost.Heading) {
	edges := make([]domain.RawEdge, 0, len(path)-1)
	windKt := make([]float64, 0, len(path)-1)
	windDir := make([]float64, 0, len(path)-1)

	clock := start
	heading := initialHeading

	for i := 0; i+1 < len(path); i++ {
		u, v := path[i], path[i+1]
		from, to := m.Vertices[u], m.Vertices[v]
		distanceM := geo.Dist(from, to)
		bearing := geo.Bearing(from, to)

		wxV := weatherAtVertex[v]
		wxU := weatherAtVertex[u]
		twa := normalizeSigned(bearing - wxV.WindDirDeg)
		avgWindKt := (wxU.WindSpeedKt + wxV.WindSpeedKt) / 2
		boatSpeedMS := polar.BoatSpeedMS(y, avgWindKt*ktToMS, twa)

		timeS := routecost.EdgeCostSeconds(from, to, wxV, wxU, y, 0, heading)
		if math.IsInf(timeS, 1) {
			// the router never emits dead-angle edges; if the weather
			// changed between the search and this walk, fall back to the
			// uncorrected time-on-distance estimate rather than stalling.
			timeS = distanceM / math.Max(boatSpeedMS, 0.5)
		}
		endTime := clock.Add(time.Duration(timeS * float64(time.Second)))

		var maneuver domain.Maneuver
		if heading != nil {
			maneuver = segment.DetectManeuver(heading.TWADeg, twa)
		}

		edges = append(edges, domain.RawEdge{
			From: from, To: to,
			DistanceM:   distanceM,
			BearingDeg:  bearing,
			BoatSpeedMS: boatSpeedMS,
			TWADeg:      twa,
			WaveHeightM: wxV.WaveHeightM,
			StartTime:   clock,
			EndTime:     endTime,
			Maneuver:    maneuver,
		})
		windKt = append(windKt, avgWindKt)
		windDir = append(windDir, wxV.WindDirDeg)

		clock = endTime
		h := routecost.Heading{BearingDeg: bearing, TWADeg: twa}
		heading = &h
	}

	var finalHeading routecost.Heading
	if heading != nil {
		finalHeading = *heading
	}
	return edges, windKt, windDir, clock, finalHeading
}

// seedETAs projects every weather point orthogonally onto the
// straight-line waypoint polyline and assigns an ETA from the
// configured initial speed (§4.8 Step 1).
func seedETAs(points []domain.WeatherPoint, waypoints []domain.Point, departure time.Time, initialSpeedKt float64) []domain.TimeAwareWeatherPoint {
	speed := initialSpeedKt * ktToMS
	if speed <= 0 {
		speed = 6 * ktToMS
	}
	out := make([]domain.TimeAwareWeatherPoint, len(points))
	for i, p := range points {
		_, arcLength, _ := geo.NearestPointOnPolyline(p.Point, waypoints)
		eta := departure.Add(time.Duration(arcLength / speed * float64(time.Second)))
		out[i] = domain.TimeAwareWeatherPoint{
			WeatherPoint:       p,
			ETA:                eta,
			Confidence:         domain.ConfidenceEstimated,
			DistanceFromStartM: arcLength,
		}
	}
	return out
}

// reprojectETAs re-derives every weather point's ETA from the routed
// path just walked, tracking the largest change for the convergence
// check (§4.8 Step 6-7).
func reprojectETAs(points []domain.TimeAwareWeatherPoint, edges []domain.RawEdge) ([]domain.TimeAwareWeatherPoint, float64) {
	polyline := buildPolyline(edges)
	if len(polyline) < 2 {
		return points, 0
	}

	maxChange := 0.0
	out := make([]domain.TimeAwareWeatherPoint, len(points))
	for i, p := range points {
		_, arcLength, distFromLine := geo.NearestPointOnPolyline(p.Point, polyline)
		newETA := etaAtArcLength(edges, arcLength)
		change := math.Abs(newETA.Sub(p.ETA).Seconds())
		if change > maxChange {
			maxChange = change
		}
		out[i] = domain.TimeAwareWeatherPoint{
			WeatherPoint:       p.WeatherPoint,
			ETA:                newETA,
			Confidence:         confidenceFor(distFromLine),
			DistanceFromStartM: arcLength,
		}
	}
	return out, maxChange
}

func buildPolyline(edges []domain.RawEdge) []domain.Point {
	if len(edges) == 0 {
		return nil
	}
	out := make([]domain.Point, 0, len(edges)+1)
	out = append(out, edges[0].From)
	for _, e := range edges {
		out = append(out, e.To)
	}
	return out
}

// etaAtArcLength interpolates the time at which the routed path reaches
// the given arc-length, using each edge's already-computed transit time.
func etaAtArcLength(edges []domain.RawEdge, arcLength float64) time.Time {
	if len(edges) == 0 {
		return time.Time{}
	}
	cum := 0.0
	for i, e := range edges {
		isLast := i == len(edges)-1
		if arcLength <= cum+e.DistanceM || isLast {
			frac := 1.0
			if e.DistanceM > 0 {
				frac = clampFrac((arcLength - cum) / e.DistanceM)
			}
			d := e.EndTime.Sub(e.StartTime)
			return e.StartTime.Add(time.Duration(float64(d) * frac))
		}
		cum += e.DistanceM
	}
	return edges[len(edges)-1].EndTime
}

func clampFrac(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// confidenceFor bands a weather point's ETA confidence by how far off the
// routed path it actually sits -- a point far from the path is being
// extrapolated rather than sampled along it.
func confidenceFor(distFromLineM float64) domain.ETAConfidence {
	switch {
	case distFromLineM < 500:
		return domain.ConfidenceHigh
	case distFromLineM < 2000:
		return domain.ConfidenceMedium
	case distFromLineM < 8000:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceEstimated
	}
}

// defaultObservation is the fallback used when a weather point has no
// assigned sample or its fetched observation fails validation (§4.8 Step
// 3): calm, conservative conditions flagged IsDefault so callers know not
// to trust it for anything but keeping the router moving.
func defaultObservation() domain.WeatherObservation {
	return domain.WeatherObservation{
		WindSpeedKt: 10, WindDirDeg: 0,
		WaveHeightM: 0.5, WaveDirDeg: 0, WavePeriodS: 6,
		IsDefault: true,
	}
}

func applyWeather(weatherAtVertex []domain.WeatherObservation, navigable []bool, assign []int, obsByIdx map[int]domain.WeatherObservation) {
	def := defaultObservation()
	for vi, pi := range assign {
		if pi < 0 {
			weatherAtVertex[vi] = def
			navigable[vi] = false
			continue
		}
		obs, ok := obsByIdx[pi]
		if !ok || !obs.Valid() {
			weatherAtVertex[vi] = def
			navigable[vi] = false
			continue
		}
		weatherAtVertex[vi] = obs
		navigable[vi] = true
	}
}

func totalDistance(segs []domain.Segment) float64 {
	var sum float64
	for _, s := range segs {
		sum += s.DistanceM
	}
	return sum
}

func totalDuration(segs []domain.Segment) float64 {
	var sum float64
	for _, s := range segs {
		sum += s.DurationS()
	}
	return sum
}

func normalizeSigned(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}
