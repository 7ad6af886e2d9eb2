// Package polar implements the yacht polar evaluator (§4.5):
// boat_speed(wind_speed, twa) by bilinear interpolation of a yacht's polar
// table, clamped at the table edges, with a piecewise-constant
// fraction-of-wind fallback when no table is configured.
//
// The interpolation itself reuses interp.GridCell / BilinearInterpolate
// (internal/adapter/interp) -- the polar table is
// exactly the "regular grid with four corner values" that function was
// built for, just keyed by (|TWA| degrees, wind knots) instead of
// (longitude, latitude).
package polar

import (
	"math"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/interp"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

const minBoatSpeedMS = 0.5 // numerical floor for edge-cost division, §4.5

// BoatSpeedMS returns the yacht's boat speed in m/s for the given true
// wind speed (m/s) and true wind angle (degrees, any sign -- symmetry is
// applied here).
func BoatSpeedMS(y *domain.Yacht, windSpeedMS, twaDeg float64) float64 {
	twa := math.Abs(normalizeTWA(twaDeg))
	windKt := windSpeedMS / 0.514444

	var speed float64
	if y.PolarTable != nil {
		speed = bilinearTableSpeed(y.PolarTable, twa, windKt)
	} else {
		speed = fallbackModel(twa, windKt)
	}

	if y.MaxSpeedMS > 0 && speed > y.MaxSpeedMS {
		speed = y.MaxSpeedMS
	}
	if speed < minBoatSpeedMS {
		speed = minBoatSpeedMS
	}
	return speed
}

func normalizeTWA(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}

// bilinearTableSpeed clamps (twa, windKt) into the table's range, then
// bilinearly interpolates within the surrounding cell.
func bilinearTableSpeed(t *domain.PolarTable, twa, windKt float64) float64 {
	ti, tFrac := clampedIndex(t.TWAAngles, twa)
	wi, wFrac := clampedIndex(t.WindSpeeds, windKt)

	ti1 := min(ti+1, len(t.TWAAngles)-1)
	wi1 := min(wi+1, len(t.WindSpeeds)-1)

	cell := interp.GridCell{
		X0: 0, X1: 1,
		Y0: 0, Y1: 1,
		V00: t.BoatSpeeds[ti][wi],
		V10: t.BoatSpeeds[ti][wi1],
		V01: t.BoatSpeeds[ti1][wi],
		V11: t.BoatSpeeds[ti1][wi1],
	}
	v, err := interp.BilinearInterpolate(cell, wFrac, tFrac)
	if err != nil {
		return cell.V00
	}
	return v
}

// clampedIndex finds the lower index bracketing v in a sorted ascending
// slice and the fractional position within that bracket, clamped to
// [0,1] when v falls outside the table (§4.5: "clamp outside the table
// to the edge value").
func clampedIndex(xs []float64, v float64) (idx int, frac float64) {
	if len(xs) == 1 {
		return 0, 0
	}
	if v <= xs[0] {
		return 0, 0
	}
	if v >= xs[len(xs)-1] {
		return len(xs) - 2, 1
	}
	for i := 0; i+1 < len(xs); i++ {
		if v >= xs[i] && v <= xs[i+1] {
			span := xs[i+1] - xs[i]
			if span == 0 {
				return i, 0
			}
			return i, (v - xs[i]) / span
		}
	}
	return len(xs) - 2, 1
}

// fallbackModel implements the piecewise-constant fraction-of-wind model
// of §4.5 when no polar table is available.
func fallbackModel(twa, windKt float64) float64 {
	var frac float64
	switch {
	case twa < 25:
		frac = 0.0
	case twa < 45:
		frac = 0.30
	case twa < 60:
		frac = 0.50
	case twa < 90:
		frac = 0.65
	case twa < 120:
		frac = 0.70
	case twa < 150:
		frac = 0.65
	case twa < 170:
		frac = 0.55
	default:
		frac = 0.50
	}

	windMS := windKt * 0.514444
	speed := frac * windMS
	if windKt < 5 {
		speed *= 0.3
	} else if windKt > 25 {
		speed *= 0.8
	}
	return speed
}

// OptimisticSpeedMS returns the down-scaled maximum polar speed used as
// the A* admissible heuristic's speed bound (§4.6).
func OptimisticSpeedMS(y *domain.Yacht, windSpeedMS float64) float64 {
	maxSpeed := y.MaxSpeedMS
	if maxSpeed <= 0 {
		maxSpeed = 10 // conservative default for yachts without a configured max
	}
	windKt := windSpeedMS / 0.514444
	switch {
	case windKt < 5:
		maxSpeed *= 0.5
	case windKt > 25:
		maxSpeed *= 0.8
	}
	if maxSpeed < minBoatSpeedMS {
		maxSpeed = minBoatSpeedMS
	}
	return maxSpeed
}
