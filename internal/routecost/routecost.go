// Package routecost implements the edge-cost heuristics of §4.6: the
// time cost of traversing one mesh edge under the weather present there,
// plus maneuver, wave, and comfort penalties, and the admissible A*
// heuristic. Pure functions, no I/O -- this is the CPU-only core the
// concurrency model (§5) requires to never suspend.
package routecost

import (
	"math"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/geo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/polar"
)

const (
	ktToMS = 0.514444
	nmToM  = 1852.0
)

// Heading carries the previous edge's bearing and TWA sign, needed to
// detect maneuvers at the current edge (§4.6 step 8). A nil *Heading
// means "no previous edge" (the initial edge of a leg).
type Heading struct {
	BearingDeg float64
	TWADeg     float64
}

// EdgeCostSeconds computes the time cost of sailing from u to v given the
// weather observation valid at v, the yacht, the dead-angle threshold
// (config-tunable, default 30deg), and the previous heading (nil at the
// start of a leg). Returns +Inf if the edge cannot be sailed directly
// (dead angle).
func EdgeCostSeconds(u, v domain.Point, weatherAtV domain.WeatherObservation, weatherAtU domain.WeatherObservation, y *domain.Yacht, deadAngleDeg float64, prev *Heading) float64 {
	distanceM := geo.Dist(u, v)
	if distanceM == 0 {
		return 0
	}
	bearing := geo.Bearing(u, v)

	twa := normalizeSigned(bearing - weatherAtV.WindDirDeg)
	if math.Abs(twa) < deadAngleDeg {
		return math.Inf(1)
	}

	avgWindKt := (weatherAtU.WindSpeedKt + weatherAtV.WindSpeedKt) / 2
	boatSpeedMS := polar.BoatSpeedMS(y, avgWindKt*ktToMS, twa)

	speedOverGroundMS := applyCurrentDrift(boatSpeedMS, bearing, weatherAtV.CurrentSpeedKt*ktToMS, weatherAtV.CurrentDirDeg)

	wavePenalty := waveFactor(weatherAtV.WaveHeightM, weatherAtV.WaveDirDeg, bearing, y.LengthM)
	speedOverGroundMS *= wavePenalty

	effectiveSpeed := math.Max(speedOverGroundMS, 0.5)
	timeS := distanceM / effectiveSpeed

	if prev != nil {
		timeS += maneuverPenaltyS(prev.TWADeg, twa, bearing, prev.BearingDeg, y)
	}

	comfort := comfortPenalty(avgWindKt, weatherAtV.WaveHeightM, y)
	timeS *= 1 + comfort

	if distanceM > 10000 {
		timeS *= 1 + (distanceM-10000)/50000
	}

	return timeS
}

// applyCurrentDrift vector-adds the current onto the boat's velocity
// along its heading and returns the speed-over-ground magnitude (§4.6
// step 5).
func applyCurrentDrift(boatSpeedMS, headingDeg, currentSpeedMS, currentDirDeg float64) float64 {
	hr := headingDeg * math.Pi / 180
	// current direction is "from" -- the vector points opposite the
	// "from" bearing (meteorological convention, §3).
	cr := (currentDirDeg + 180) * math.Pi / 180

	bx := boatSpeedMS * math.Sin(hr)
	by := boatSpeedMS * math.Cos(hr)
	cx := currentSpeedMS * math.Sin(cr)
	cy := currentSpeedMS * math.Cos(cr)

	return math.Hypot(bx+cx, by+cy)
}

// waveFactor returns the wave-penalty multiplier (§4.6 step 6), capped at
// a 0.5 reduction (i.e. never below 0.5).
func waveFactor(waveHeightM, waveDirDeg, bearingDeg, yachtLengthM float64) float64 {
	if yachtLengthM <= 0 {
		yachtLengthM = 12
	}
	relativeHeight := waveHeightM / yachtLengthM

	waveAngle := math.Abs(normalizeSigned(waveDirDeg - bearingDeg))
	var angleFactor float64
	switch {
	case waveAngle < 45:
		angleFactor = 1.0 // head seas
	case waveAngle < 135:
		angleFactor = 1.2 // beam seas
	default:
		angleFactor = 0.3 // following seas
	}

	reduction := relativeHeight * angleFactor * 0.5
	if reduction > 0.5 {
		reduction = 0.5
	}
	return 1 - reduction
}

// maneuverPenaltyS adds a tack/jibe/large-turn penalty (§4.6 step 8).
func maneuverPenaltyS(prevTWA, twa, bearing, prevBearing float64, y *domain.Yacht) float64 {
	signChanged := (prevTWA > 0) != (twa > 0)
	if signChanged {
		if math.Abs(prevTWA) < 90 && math.Abs(twa) < 90 {
			t := y.TackTimeS
			if t <= 0 {
				t = 120
			}
			return t
		}
		if math.Abs(prevTWA) > 120 && math.Abs(twa) > 120 {
			j := y.JibeTimeS
			if j <= 0 {
				j = 90
			}
			return j
		}
	}
	headingChange := math.Abs(normalizeSigned(bearing - prevBearing))
	if headingChange > 60 {
		return 10
	}
	return 0
}

// comfortPenalty rises for very small or very large winds, large waves
// relative to yacht length, and small crews (§4.6 step 9), capped at 0.5.
func comfortPenalty(windKt, waveHeightM float64, y *domain.Yacht) float64 {
	var penalty float64
	if windKt < 5 {
		penalty += (5 - windKt) / 10
	} else if windKt > 25 {
		penalty += (windKt - 25) / 20
	}

	length := y.LengthM
	if length <= 0 {
		length = 12
	}
	relativeWave := waveHeightM / length
	if relativeWave > 0.3 {
		penalty += (relativeWave - 0.3)
	}

	crew := y.CrewSize
	if crew > 0 && crew < 3 {
		penalty += float64(3-crew) * 0.05
	}

	if penalty > 0.5 {
		penalty = 0.5
	}
	return penalty
}

// HeuristicSeconds is the admissible A* heuristic h(u, goal): straight
// distance divided by the optimistic (down-scaled) polar speed (§4.6).
func HeuristicSeconds(u, goal domain.Point, y *domain.Yacht, approxWindSpeedMS float64) float64 {
	distanceM := geo.Dist(u, goal)
	speed := polar.OptimisticSpeedMS(y, approxWindSpeedMS)
	return distanceM / speed
}

// normalizeSigned wraps a degree difference into (-180, 180].
func normalizeSigned(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}
