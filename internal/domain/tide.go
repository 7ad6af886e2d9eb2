package domain

import (
	"math"
	"time"
)

// PredictionParams holds all parameters needed for tide prediction.
type PredictionParams struct {
    Constituents    []ConstituentParam
    MSL             float64         // Mean Sea Level offset in meters.
    Longitude       float64         // Longitude in degrees (for Greenwich phase correction).
    NodalCorrection NodalCorrection // Interface for nodal corrections.
    ReferenceTime   time.Time       // Reference time for phase (usually Unix epoch or local epoch).
    PhaseConvention PhaseConvention // Phase handling convention.
}

// PhaseConvention selects the phase formula to use.
// - PhaseConvFESGreenwich: use Greenwich phase lag with longitude correction (typical for FES)
//   h(t) = f A cos(ωΔt - φ + λ + u) + MSL
// - PhaseConvVu: use equilibrium argument V + nodal correction u
//   h(t) = f A cos(ωΔt + (V + u) - φ) + MSL
type PhaseConvention int

const (
	// PhaseConvFESGreenwich uses Greenwich phase lag with longitude correction.
    PhaseConvFESGreenwich PhaseConvention = iota
	// PhaseConvVu uses equilibrium argument V + nodal correction u.
    PhaseConvVu
)

// CalculateTideHeight computes the tide height at a specific time using harmonic analysis
// η(t) = Σ f_k * A_k * cos(θ_k) + MSL, with
// θ_k = ω_k * Δt - φ_k + λ + u_k for PhaseConvFESGreenwich and
// θ_k = ω_k * Δt + V_k + u_k - φ_k for any other convention,
// where:
//   - λ is params.Longitude and V_k the equilibrium argument, in degrees
//   - f_k, u_k are nodal corrections (amplitude factor and phase correction)
//   - A_k is amplitude in meters
//   - ω_k is angular speed in degrees per hour
//   - φ_k is phase in degrees
//   - Δt is hours since reference time
func CalculateTideHeight(t time.Time, params PredictionParams) float64 {
    if params.NodalCorrection == nil {
        params.NodalCorrection = &IdentityNodalCorrection{}
    }

    deltaHours := t.Sub(params.ReferenceTime).Hours()
    height := params.MSL

    for _, c := range params.Constituents {
        // Get nodal corrections.
        f, u := params.NodalCorrection.GetFactors(c.Name, deltaHours)

        // Calculate phase angle in degrees based on convention.
        var phaseAngleDeg float64
        switch params.PhaseConvention {
        case PhaseConvFESGreenwich:
            // FES Greenwich phase lag φ with geographic longitude correction.
            // h(t) = f A cos(ωΔt - φ + λ + u)
            phaseAngleDeg = c.SpeedDegPerHr*deltaHours - c.PhaseDeg + params.Longitude + u
        default:
            // Use equilibrium argument V + u (if provided by nodal correction). Avoid longitude.
            v := params.NodalCorrection.GetEquilibriumArgument(c.Name, deltaHours)
            phaseAngleDeg = c.SpeedDegPerHr*deltaHours + v + u - c.PhaseDeg
        }

        // Convert to radians and calculate contribution.
        phaseAngleRad := Deg2Rad(phaseAngleDeg)
        contribution := f * c.AmplitudeM * math.Cos(phaseAngleRad)

        height += contribution
    }

    return height
}
