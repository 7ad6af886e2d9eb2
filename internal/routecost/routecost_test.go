package routecost

import (
	"math"
	"testing"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

func baseYacht() *domain.Yacht {
	return &domain.Yacht{MaxSpeedMS: 10, LengthM: 12, TackTimeS: 120, JibeTimeS: 90, CrewSize: 4}
}

func TestEdgeCostDeadAngleIsInf(t *testing.T) {
	u := domain.Point{X: 0, Y: 0}
	v := domain.Point{X: 0, Y: 100} // bearing 0, wind from north -> TWA 0
	w := domain.WeatherObservation{WindSpeedKt: 15, WindDirDeg: 0}
	cost := EdgeCostSeconds(u, v, w, w, baseYacht(), 30, nil)
	if !math.IsInf(cost, 1) {
		t.Errorf("expected +Inf cost sailing directly into the wind, got %v", cost)
	}
}

func TestEdgeCostFiniteOnReach(t *testing.T) {
	u := domain.Point{X: 0, Y: 0}
	v := domain.Point{X: 1000, Y: 0} // bearing 90 (east), wind from north -> TWA 90
	w := domain.WeatherObservation{WindSpeedKt: 15, WindDirDeg: 0}
	cost := EdgeCostSeconds(u, v, w, w, baseYacht(), 30, nil)
	if math.IsInf(cost, 0) || cost <= 0 {
		t.Errorf("expected finite positive cost on a beam reach, got %v", cost)
	}
}

func TestTackPenaltyAppliedOnSignChangeUpwind(t *testing.T) {
	u := domain.Point{X: 0, Y: 0}
	v := domain.Point{X: 640, Y: 760} // bearing ~40, wind from north -> TWA ~40, outside the dead angle
	w := domain.WeatherObservation{WindSpeedKt: 15, WindDirDeg: 0}
	prev := &Heading{BearingDeg: -40, TWADeg: -40}
	withTack := EdgeCostSeconds(u, v, w, w, baseYacht(), 30, prev)
	withoutTack := EdgeCostSeconds(u, v, w, w, baseYacht(), 30, nil)
	if withTack <= withoutTack {
		t.Errorf("tack penalty should make the edge cost higher: with=%v without=%v", withTack, withoutTack)
	}
}

func TestWaveFactorFollowingSeasFasterThanHead(t *testing.T) {
	follow := waveFactor(2, 90, 270, 12) // waves from the east, heading west
	head := waveFactor(2, 90, 90, 12)    // waves from the east, heading east
	if follow <= head {
		t.Errorf("following seas factor (%v) should exceed head seas factor (%v)", follow, head)
	}
}

func TestComfortPenaltyCappedAtHalf(t *testing.T) {
	y := &domain.Yacht{LengthM: 8, CrewSize: 1}
	p := comfortPenalty(40, 10, y)
	if p > 0.5+1e-9 {
		t.Errorf("comfort penalty should be capped at 0.5, got %v", p)
	}
}

func TestHeuristicAdmissibleLowerThanActual(t *testing.T) {
	u := domain.Point{X: 0, Y: 0}
	goal := domain.Point{X: 0, Y: 10000}
	y := baseYacht()
	h := HeuristicSeconds(u, goal, y, 15*ktToMS)
	w := domain.WeatherObservation{WindSpeedKt: 15, WindDirDeg: 200}
	actual := EdgeCostSeconds(u, goal, w, w, y, 30, nil)
	if h > actual {
		t.Errorf("heuristic (%v) must not overestimate actual cost (%v)", h, actual)
	}
}

func TestApplyCurrentDriftAddsWhenAligned(t *testing.T) {
	boosted := applyCurrentDrift(5, 90, 2, 270) // current "from" west -> pushes east, aligned with heading east
	plain := applyCurrentDrift(5, 90, 0, 270)
	if boosted <= plain {
		t.Errorf("aligned current should increase speed over ground: boosted=%v plain=%v", boosted, plain)
	}
}
