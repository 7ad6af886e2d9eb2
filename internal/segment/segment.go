// Package segment folds the raw mesh-edge path produced by the router
// into human-scale merged segments and classifies tack/jibe maneuvers at
// the breakpoints between them (§4.9).
package segment

import (
	"iter"
	"math"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

const (
	bearingToleranceDeg = 5.0
	minSegmentNM        = 0.1
	nmToM               = 1852.0
)

// DetectManeuver classifies the wind-crossing between two consecutive
// edges' TWAs (§4.9 "Maneuver detection").
func DetectManeuver(prevTWA, nextTWA float64) domain.Maneuver {
	if (prevTWA > 0) == (nextTWA > 0) {
		return domain.ManeuverNone
	}
	if math.Abs(prevTWA) < 90 && math.Abs(nextTWA) < 90 {
		return domain.ManeuverTack
	}
	if math.Abs(prevTWA) > 120 && math.Abs(nextTWA) > 120 {
		return domain.ManeuverJibe
	}
	return domain.ManeuverNone
}

// circularMean computes the length-weighted circular mean bearing of a
// running group, normalized to [0,360) (§4.9 "Circular mean").
func circularMean(bearings, weights []float64) float64 {
	var sx, sy float64
	for i, b := range bearings {
		r := b * math.Pi / 180
		sx += weights[i] * math.Cos(r)
		sy += weights[i] * math.Sin(r)
	}
	if sx == 0 && sy == 0 {
		return 0
	}
	deg := math.Atan2(sy, sx) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// group accumulates raw edges that are being folded into one merged
// segment.
type group struct {
	edges []domain.RawEdge
}

func (g *group) meanBearing() float64 {
	bearings := make([]float64, len(g.edges))
	weights := make([]float64, len(g.edges))
	for i, e := range g.edges {
		bearings[i] = e.BearingDeg
		weights[i] = e.DistanceM
	}
	return circularMean(bearings, weights)
}

func (g *group) toSegment(maneuverAtEnd domain.Maneuver) domain.Segment {
	first, last := g.edges[0], g.edges[len(g.edges)-1]

	var totalDist, totalTime, sumTWA, sumWind, sumWave, sinB, cosB float64
	hasTack, hasJibe := false, false
	for _, e := range g.edges {
		totalDist += e.DistanceM
		dt := e.EndTime.Sub(e.StartTime).Seconds()
		totalTime += dt
		sumTWA += e.TWADeg * e.DistanceM
		sumWind += e.BoatSpeedMS * e.DistanceM
		sumWave += e.WaveHeightM * e.DistanceM
		r := e.BearingDeg * math.Pi / 180
		sinB += e.DistanceM * math.Sin(r)
		cosB += e.DistanceM * math.Cos(r)
		if e.Maneuver == domain.ManeuverTack {
			hasTack = true
		}
		if e.Maneuver == domain.ManeuverJibe {
			hasJibe = true
		}
	}
	if maneuverAtEnd == domain.ManeuverTack {
		hasTack = true
	}
	if maneuverAtEnd == domain.ManeuverJibe {
		hasJibe = true
	}

	meanBearing := g.meanBearing()
	var meanTWA, meanSpeed, meanWave float64
	if totalDist > 0 {
		meanTWA = sumTWA / totalDist
		meanSpeed = sumWind / totalDist
		meanWave = sumWave / totalDist
	}

	return domain.Segment{
		From:        first.From,
		To:          last.To,
		DistanceM:   totalDist,
		BearingDeg:  meanBearing,
		BoatSpeedMS: meanSpeed,
		TWADeg:      meanTWA,
		WaveHeightM: meanWave,
		StartTime:   first.StartTime,
		EndTime:     last.EndTime,
		HasTack:     hasTack,
		HasJibe:     hasJibe,
	}
}

// Merge folds a raw edge path into merged segments, then runs a
// short-segment cleanup pass (§4.9). edges must be in traversal order.
func Merge(edges []domain.RawEdge) []domain.Segment {
	var raw []domain.Segment
	for s := range groups(edges) {
		raw = append(raw, s)
	}
	return cleanupShortSegments(raw)
}

// groups is a pull-based iterator over the raw edge slice, yielding one
// merged (pre-cleanup) segment at a time: it only needs to hold the
// current run's edges in memory, never the whole path.
func groups(edges []domain.RawEdge) iter.Seq[domain.Segment] {
	return func(yield func(domain.Segment) bool) {
		if len(edges) == 0 {
			return
		}
		cur := &group{edges: []domain.RawEdge{edges[0]}}
		for i := 1; i < len(edges); i++ {
			e := edges[i]
			maneuver := DetectManeuver(cur.edges[len(cur.edges)-1].TWADeg, e.TWADeg)
			bearingDiff := math.Abs(normalizeSigned(e.BearingDeg - cur.meanBearing()))
			if maneuver == domain.ManeuverNone && bearingDiff <= bearingToleranceDeg {
				cur.edges = append(cur.edges, e)
				continue
			}
			if !yield(cur.toSegment(maneuver)) {
				return
			}
			cur = &group{edges: []domain.RawEdge{e}}
		}
		yield(cur.toSegment(domain.ManeuverNone))
	}
}

// cleanupShortSegments folds any segment shorter than MIN_SEGMENT_NM into
// its neighbor when the bearing difference is small and no maneuver
// stands between them (§4.9 "Short-segment cleanup").
func cleanupShortSegments(segs []domain.Segment) []domain.Segment {
	minM := minSegmentNM * nmToM
	changed := true
	for changed {
		changed = false
		for i, s := range segs {
			if s.DistanceM >= minM || len(segs) < 2 {
				continue
			}
			var neighbor int
			if i == 0 {
				neighbor = 1
			} else {
				neighbor = i - 1
			}
			if s.HasTack || s.HasJibe {
				continue
			}
			bearingDiff := math.Abs(normalizeSigned(s.BearingDeg - segs[neighbor].BearingDeg))
			if bearingDiff > bearingToleranceDeg*3 {
				continue
			}
			merged := foldInto(segs[neighbor], s, neighbor < i)
			var out []domain.Segment
			lo, hi := neighbor, i
			if lo > hi {
				lo, hi = hi, lo
			}
			out = append(out, segs[:lo]...)
			out = append(out, merged)
			out = append(out, segs[hi+1:]...)
			segs = out
			changed = true
			break
		}
	}
	return segs
}

// foldInto merges a short segment into its neighbor, preserving
// traversal order (neighborFirst indicates the neighbor comes before the
// short segment in the path).
func foldInto(neighbor, short domain.Segment, neighborFirst bool) domain.Segment {
	a, b := neighbor, short
	if !neighborFirst {
		a, b = short, neighbor
	}
	totalDist := a.DistanceM + b.DistanceM
	var meanTWA, meanSpeed, meanWave float64
	if totalDist > 0 {
		meanTWA = (a.TWADeg*a.DistanceM + b.TWADeg*b.DistanceM) / totalDist
		meanSpeed = (a.BoatSpeedMS*a.DistanceM + b.BoatSpeedMS*b.DistanceM) / totalDist
		meanWave = (a.WaveHeightM*a.DistanceM + b.WaveHeightM*b.DistanceM) / totalDist
	}
	bearing := circularMean([]float64{a.BearingDeg, b.BearingDeg}, []float64{a.DistanceM, b.DistanceM})

	return domain.Segment{
		From:        a.From,
		To:          b.To,
		DistanceM:   totalDist,
		BearingDeg:  bearing,
		BoatSpeedMS: meanSpeed,
		TWADeg:      meanTWA,
		WaveHeightM: meanWave,
		StartTime:   a.StartTime,
		EndTime:     b.EndTime,
		HasTack:     a.HasTack || b.HasTack,
		HasJibe:     a.HasJibe || b.HasJibe,
	}
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
