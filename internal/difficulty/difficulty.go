// Package difficulty aggregates a route's meteo, geometry, and
// navigation factors into the 1-10 difficulty score of §4.10.
package difficulty

import (
	"math"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

const (
	meteoWeight     = 0.40
	geometryWeight  = 0.45
	navigationWeight = 0.15
)

// Score computes the overall 1-10 difficulty score and band for a set of
// merged segments, given the set of wind speeds/directions observed
// along the route (one per segment, the weather valid at its midpoint).
func Score(segments []domain.Segment, windSpeedsKt, windDirsDeg, waveHeightsM []float64) (float64, domain.DifficultyLevel) {
	if len(segments) == 0 {
		return 1, domain.DifficultyVeryEasy
	}

	meteo := meteoScore(windSpeedsKt, windDirsDeg, waveHeightsM)
	geometry := geometryScore(segments)
	navigation := navigationScore(segments)

	total := meteoWeight*meteo + geometryWeight*geometry + navigationWeight*navigation
	total = clamp(total, 1, 10)
	return total, band(total)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func band(score float64) domain.DifficultyLevel {
	switch {
	case score < 2.8:
		return domain.DifficultyVeryEasy
	case score < 4.6:
		return domain.DifficultyEasy
	case score < 6.4:
		return domain.DifficultyModerate
	case score < 8.2:
		return domain.DifficultyDifficult
	default:
		return domain.DifficultyVeryDifficult
	}
}

// meteoScore combines wind-comfort-band deviation, a gust proxy
// (peak-minus-mean), wave-height bands, and circular dispersion of wind
// direction (§4.10 "Meteo 40%").
func meteoScore(windSpeedsKt, windDirsDeg, waveHeightsM []float64) float64 {
	if len(windSpeedsKt) == 0 {
		return 1
	}

	var sum, peak float64
	for _, w := range windSpeedsKt {
		sum += w
		if w > peak {
			peak = w
		}
	}
	mean := sum / float64(len(windSpeedsKt))

	var comfortDeviation float64
	switch {
	case mean < 8:
		comfortDeviation = 8 - mean
	case mean > 18:
		comfortDeviation = mean - 18
	}
	comfortScore := 1 + clamp(comfortDeviation/2, 0, 9)

	gustScore := 1 + clamp((peak-mean)/3, 0, 9)

	var waveSum float64
	for _, h := range waveHeightsM {
		waveSum += h
	}
	var meanWave float64
	if len(waveHeightsM) > 0 {
		meanWave = waveSum / float64(len(waveHeightsM))
	}
	waveScore := 1 + clamp(meanWave*3, 0, 9)

	dispersion := circularDispersion(windDirsDeg)
	dispersionScore := 1 + clamp(dispersion*9, 0, 9)

	return (comfortScore + gustScore + waveScore + dispersionScore) / 4
}

// circularDispersion returns 1-R, the circular variance of a set of
// directions in degrees (0 = perfectly consistent, 1 = maximally
// dispersed).
func circularDispersion(dirsDeg []float64) float64 {
	if len(dirsDeg) == 0 {
		return 0
	}
	var sx, sy float64
	for _, d := range dirsDeg {
		r := d * math.Pi / 180
		sx += math.Cos(r)
		sy += math.Sin(r)
	}
	n := float64(len(dirsDeg))
	r := math.Hypot(sx, sy) / n
	return 1 - r
}

// geometryScore combines distance bands, tack/jibe counts, maneuver
// density, and upwind ratio (§4.10 "Geometry 45%").
func geometryScore(segments []domain.Segment) float64 {
	var totalDistM float64
	var tacks, jibes int
	var upwindDistM float64
	for _, s := range segments {
		totalDistM += s.DistanceM
		if s.HasTack {
			tacks++
		}
		if s.HasJibe {
			jibes++
		}
		if math.Abs(s.TWADeg) < 60 {
			upwindDistM += s.DistanceM
		}
	}
	totalNM := totalDistM / 1852.0

	var distanceScore float64
	switch {
	case totalNM < 5:
		distanceScore = 2
	case totalNM < 20:
		distanceScore = 4
	case totalNM < 50:
		distanceScore = 6
	case totalNM < 100:
		distanceScore = 8
	default:
		distanceScore = 10
	}

	maneuverDensity := float64(tacks+jibes) / math.Max(totalNM, 0.1)
	maneuverScore := 1 + clamp(maneuverDensity*3, 0, 9)

	var upwindRatio float64
	if totalDistM > 0 {
		upwindRatio = upwindDistM / totalDistM
	}
	upwindScore := 1 + upwindRatio*9

	return (distanceScore + maneuverScore + upwindScore) / 3
}

// navigationScore combines night-sailing fraction and course-change
// magnitude (§4.10 "Navigation 15%").
func navigationScore(segments []domain.Segment) float64 {
	var totalS, nightS float64
	var changes []float64
	for i, s := range segments {
		dt := s.DurationS()
		totalS += dt
		nightS += nightFractionOf(s) * dt
		if i > 0 {
			changes = append(changes, math.Abs(normalizeSigned(s.BearingDeg-segments[i-1].BearingDeg)))
		}
	}

	var nightRatio float64
	if totalS > 0 {
		nightRatio = nightS / totalS
	}
	nightScore := 1 + nightRatio*9

	var avgChange, peakChange float64
	for _, c := range changes {
		avgChange += c
		if c > peakChange {
			peakChange = c
		}
	}
	if len(changes) > 0 {
		avgChange /= float64(len(changes))
	}
	changeScore := 1 + clamp((avgChange+peakChange)/2/18, 0, 9)

	return (nightScore + changeScore) / 2
}

// nightFractionOf returns the fraction of a segment's duration that
// falls between 18:00 and 06:00 local (approximated using the segment's
// own timestamps' clock hour, since no timezone/location resolution is
// performed in the core -- §4.10 treats this as local wall-clock time
// already attached to each timestamp).
func nightFractionOf(s domain.Segment) float64 {
	dur := s.EndTime.Sub(s.StartTime)
	if dur <= 0 {
		return 0
	}
	const steps = 16
	nightSteps := 0
	for i := 0; i < steps; i++ {
		offset := time.Duration(int64(dur) * int64(i) / steps)
		h := s.StartTime.Add(offset).Hour()
		if h >= 18 || h < 6 {
			nightSteps++
		}
	}
	return float64(nightSteps) / steps
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
