package water

import (
	"context"
	"testing"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
)

type noLand struct{}

func (noLand) Fetch(ctx context.Context, bbox ports.BBox) (domain.Polygon, error) {
	return domain.Polygon{}, nil
}

type flatBathy struct{ depthM float64 }

func (f flatBathy) FetchRaster(ctx context.Context, bbox ports.BBox, resolutionDeg float64) (*ports.DepthRaster, error) {
	lats := []float64{bbox.MinLat, bbox.MaxLat}
	lons := []float64{bbox.MinLon, bbox.MaxLon}
	return &ports.DepthRaster{
		Lats: lats, Lons: lons,
		DepthM: [][]float64{{f.depthM, f.depthM}, {f.depthM, f.depthM}},
	}, nil
}

func TestBuildProducesNonEmptyWaterInOpenOcean(t *testing.T) {
	controls := []domain.ControlPoint{
		{Lat: 54.30, Lon: 18.50},
		{Lat: 54.40, Lon: 18.70},
	}
	cfg := Config{CorridorNM: 1, DraftM: 2, ClearanceM: 1, BathyResDeg: 0.05, DetourAreaCapM2: 5000}
	res, err := Build(context.Background(), controls, cfg, noLand{}, flatBathy{depthM: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Water.Rings) == 0 {
		t.Fatal("expected a non-empty water polygon")
	}
	if res.Detoured {
		t.Error("did not expect a detour in open, obstacle-free water")
	}
}

func TestBuildRejectsTooFewControlPoints(t *testing.T) {
	_, err := Build(context.Background(), []domain.ControlPoint{{Lat: 1, Lon: 1}}, Config{CorridorNM: 1}, noLand{}, flatBathy{depthM: 50})
	if err == nil {
		t.Fatal("expected InvalidInput for a single control point")
	}
}

func TestBuildRejectsCoincidentControlPoints(t *testing.T) {
	controls := []domain.ControlPoint{{Lat: 54.3, Lon: 18.5}, {Lat: 54.3, Lon: 18.5}}
	cfg := Config{CorridorNM: 1, DraftM: 2, ClearanceM: 1, BathyResDeg: 0.05}
	_, err := Build(context.Background(), controls, cfg, noLand{}, flatBathy{depthM: 50})
	if err == nil {
		t.Fatal("expected InvalidInput for coincident control points")
	}
}

func TestBuildTreatsNearCoincidentStartGoalAsZeroSegment(t *testing.T) {
	controls := []domain.ControlPoint{{Lat: 54.3, Lon: 18.5}, {Lat: 54.300005, Lon: 18.5}}
	cfg := Config{CorridorNM: 1, DraftM: 2, ClearanceM: 1, BathyResDeg: 0.05}
	res, err := Build(context.Background(), controls, cfg, noLand{}, flatBathy{depthM: 50})
	if err != nil {
		t.Fatalf("expected a zero-segment success, got error: %v", err)
	}
	if !res.Degenerate {
		t.Fatal("expected a start-coincident-with-goal route to be marked Degenerate")
	}
	if len(res.Polyline) != 2 {
		t.Fatalf("expected the original two-point polyline to be preserved, got %d points", len(res.Polyline))
	}
}

func TestBuildFailsWhenFullyShallow(t *testing.T) {
	controls := []domain.ControlPoint{{Lat: 54.30, Lon: 18.50}, {Lat: 54.31, Lon: 18.51}}
	cfg := Config{CorridorNM: 1, DraftM: 2, ClearanceM: 1, BathyResDeg: 0.05, DetourAreaCapM2: 5000}
	_, err := Build(context.Background(), controls, cfg, noLand{}, flatBathy{depthM: 0.5})
	if err == nil {
		t.Fatal("expected NoNavigableArea when the whole corridor is shallow")
	}
}
