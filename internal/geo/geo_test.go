package geo

import (
	"math"
	"testing"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

func TestProjectRoundTrip(t *testing.T) {
	controls := []domain.ControlPoint{
		{Lat: 54.52, Lon: 18.55},
		{Lat: 54.35, Lon: 18.90},
	}
	frame := ChooseLocalFrame(controls)

	for _, c := range controls {
		p := ProjectPoint(frame, c.Lat, c.Lon)
		lat, lon := UnprojectPoint(frame, p)
		if math.Abs(lat-c.Lat) > 1.0/111320.0 {
			t.Errorf("lat round-trip off by more than 1m: got %v want %v", lat, c.Lat)
		}
		if dLonM := math.Abs(lon-c.Lon) * 111320.0 * math.Cos(c.Lat*math.Pi/180); dLonM > 1.0 {
			t.Errorf("lon round-trip off by more than 1m: %v m", dLonM)
		}
	}
}

func TestBufferPolylineProducesNonEmptyPolygon(t *testing.T) {
	line := []domain.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}}
	poly := BufferPolyline(line, 100)
	if len(poly.Rings) == 0 {
		t.Fatal("expected at least one ring")
	}
	area := PolygonAreaM2(poly)
	if area <= 0 {
		t.Errorf("expected positive area, got %v", area)
	}
	for _, p := range line {
		if !PointInPolygon(p, poly) {
			t.Errorf("route point %v should lie inside its own corridor", p)
		}
	}
}

func TestPointInRing(t *testing.T) {
	square := []domain.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if !PointInRing(domain.Point{X: 5, Y: 5}, square) {
		t.Error("center should be inside")
	}
	if PointInRing(domain.Point{X: 20, Y: 20}, square) {
		t.Error("far point should be outside")
	}
}

func TestNearestPointOnPolyline(t *testing.T) {
	line := []domain.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}
	_, arc, dist := NearestPointOnPolyline(domain.Point{X: 50, Y: 10}, line)
	if dist > 10.01 {
		t.Errorf("expected distance close to 10, got %v", dist)
	}
	if arc < 40 || arc > 60 {
		t.Errorf("expected arc length near 50, got %v", arc)
	}
}

func TestBearingCardinal(t *testing.T) {
	north := Bearing(domain.Point{X: 0, Y: 0}, domain.Point{X: 0, Y: 10})
	if math.Abs(north-0) > 1e-6 {
		t.Errorf("expected bearing 0 (north), got %v", north)
	}
	east := Bearing(domain.Point{X: 0, Y: 0}, domain.Point{X: 10, Y: 0})
	if math.Abs(east-90) > 1e-6 {
		t.Errorf("expected bearing 90 (east), got %v", east)
	}
}
