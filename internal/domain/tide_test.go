package domain

import (
	"math"
	"testing"
	"time"
)

// TestCalculateTideHeight_SingleConstituent tests tide calculation with a single constituent.
func TestCalculateTideHeight_SingleConstituent(t *testing.T) {
	// Use M2 constituent with known parameters
	// M2 speed: 28.9841042 deg/hr
	// Period: 12.4206012 hours

	refTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	params := PredictionParams{
		Constituents: []ConstituentParam{
			{
				Name:          "M2",
				AmplitudeM:    1.0,
				PhaseDeg:      0.0, // Phase at reference time
				SpeedDegPerHr: 28.9841042,
			},
		},
		MSL:             0.0,
		NodalCorrection: &IdentityNodalCorrection{},
		ReferenceTime:   refTime,
	}

	// Test at reference time (t=0)
	// Expected: A * cos(0) = 1.0
	h0 := CalculateTideHeight(refTime, params)
	if math.Abs(h0-1.0) > 1e-9 {
		t.Errorf("Height at t=0: expected 1.0, got %.10f", h0)
	}

	// Test at quarter period (should be near zero)
	// Quarter period = 12.4206012 / 4 = 3.10515 hours
	quarterPeriodHours := 3.10515
	quarterPeriod := time.Duration(quarterPeriodHours * float64(time.Hour))
	tQuarter := refTime.Add(quarterPeriod)
	hQuarter := CalculateTideHeight(tQuarter, params)

	// At quarter period, phase = 90 degrees, cos(90) = 0
	if math.Abs(hQuarter) > 1e-6 {
		t.Errorf("Height at quarter period: expected ~0, got %.10f", hQuarter)
	}

	// Test at half period (should be negative amplitude)
	halfPeriodHours := 6.2103
	halfPeriod := time.Duration(halfPeriodHours * float64(time.Hour))
	tHalf := refTime.Add(halfPeriod)
	hHalf := CalculateTideHeight(tHalf, params)

	// At half period, phase = 180 degrees, cos(180) = -1
	if math.Abs(hHalf-(-1.0)) > 1e-6 {
		t.Errorf("Height at half period: expected -1.0, got %.10f", hHalf)
	}
}

// TestCalculateTideHeight_MultipleConstituents tests with multiple constituents.
func TestCalculateTideHeight_MultipleConstituents(t *testing.T) {
	refTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	params := PredictionParams{
		Constituents: []ConstituentParam{
			{
				Name:          "M2",
				AmplitudeM:    0.5,
				PhaseDeg:      0.0,
				SpeedDegPerHr: 28.9841042,
			},
			{
				Name:          "S2",
				AmplitudeM:    0.2,
				PhaseDeg:      0.0,
				SpeedDegPerHr: 30.0,
			},
		},
		MSL:             0.0,
		NodalCorrection: &IdentityNodalCorrection{},
		ReferenceTime:   refTime,
	}

	// At t=0, both constituents should be at max
	// Expected: 0.5 + 0.2 = 0.7
	h0 := CalculateTideHeight(refTime, params)
	if math.Abs(h0-0.7) > 1e-9 {
		t.Errorf("Height at t=0: expected 0.7, got %.10f", h0)
	}
}

// TestDeg2Rad tests degree to radian conversion.
func TestDeg2Rad(t *testing.T) {
	tests := []struct {
		deg      float64
		expected float64
	}{
		{0, 0},
		{90, math.Pi / 2},
		{180, math.Pi},
		{360, 2 * math.Pi},
		{-90, -math.Pi / 2},
	}

	for _, tt := range tests {
		result := Deg2Rad(tt.deg)
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("Deg2Rad(%.1f): expected %.10f, got %.10f", tt.deg, tt.expected, result)
		}
	}
}
