package difficulty

import (
	"testing"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

func calmSegment() domain.Segment {
	t0 := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	return domain.Segment{
		DistanceM: 5000, BearingDeg: 90, TWADeg: 90,
		StartTime: t0, EndTime: t0.Add(30 * time.Minute),
	}
}

func TestScoreEmptyRouteIsVeryEasy(t *testing.T) {
	score, band := Score(nil, nil, nil, nil)
	if score != 1 || band != domain.DifficultyVeryEasy {
		t.Errorf("expected minimum score/band for empty route, got %v/%v", score, band)
	}
}

func TestScoreWithinBounds(t *testing.T) {
	segs := []domain.Segment{calmSegment()}
	score, _ := Score(segs, []float64{12}, []float64{180}, []float64{0.5})
	if score < 1 || score > 10 {
		t.Errorf("expected score in [1,10], got %v", score)
	}
}

func TestRoughWeatherScoresHigherThanCalm(t *testing.T) {
	segs := []domain.Segment{calmSegment()}
	calm, _ := Score(segs, []float64{12, 13, 12}, []float64{180, 182, 179}, []float64{0.3})
	rough, _ := Score(segs, []float64{35, 5, 40}, []float64{90, 270, 30}, []float64{4, 4, 4})
	if rough <= calm {
		t.Errorf("expected rough weather (%v) to score higher than calm (%v)", rough, calm)
	}
}

func TestNightFractionDetectsNighttimeSegment(t *testing.T) {
	t0 := time.Date(2026, 7, 29, 22, 0, 0, 0, time.UTC)
	seg := domain.Segment{StartTime: t0, EndTime: t0.Add(2 * time.Hour)}
	frac := nightFractionOf(seg)
	if frac < 0.9 {
		t.Errorf("expected ~all of a 22:00-00:00 segment to count as night, got %v", frac)
	}
}

func TestMoreManeuversIncreaseGeometryScore(t *testing.T) {
	base := calmSegment()
	withTack := base
	withTack.HasTack = true
	few := geometryScore([]domain.Segment{base})
	many := geometryScore([]domain.Segment{withTack, withTack, withTack})
	if many <= few {
		t.Errorf("expected more tacks to raise the geometry score: few=%v many=%v", few, many)
	}
}
