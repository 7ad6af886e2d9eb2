package eta

import (
	"context"
	"testing"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/config"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/weatherclient"
)

// stripMesh mirrors internal/router's lineMesh: a simple strip of
// triangles from (0,0) to (400,0).
func stripMesh() domain.Mesh {
	verts := []domain.Point{
		{X: 0, Y: 0}, {X: 0, Y: 50},
		{X: 100, Y: 0}, {X: 100, Y: 50},
		{X: 200, Y: 0}, {X: 200, Y: 50},
		{X: 300, Y: 0}, {X: 300, Y: 50},
		{X: 400, Y: 0}, {X: 400, Y: 50},
	}
	tris := [][3]int{
		{0, 1, 3}, {0, 3, 2},
		{2, 3, 5}, {2, 5, 4},
		{4, 5, 7}, {4, 7, 6},
		{6, 7, 9}, {6, 9, 8},
	}
	return domain.Mesh{Vertices: verts, Triangles: tris, TriZones: make([]int, len(tris))}
}

type steadyWeatherSource struct{}

func (steadyWeatherSource) FetchBatchAtTime(ctx context.Context, queries []ports.WeatherQuery) (map[int]domain.WeatherObservation, error) {
	out := make(map[int]domain.WeatherObservation, len(queries))
	for _, q := range queries {
		out[q.Idx] = domain.WeatherObservation{
			WindSpeedKt: 15, WindDirDeg: 0,
			WaveHeightM: 0.5, WaveDirDeg: 0, WavePeriodS: 6,
		}
	}
	return out, nil
}

func testClient(t *testing.T) *weatherclient.Client {
	t.Helper()
	c, err := weatherclient.New(steadyWeatherSource{}, weatherclient.Nop{}, 256, 1000, 100, 0.01, 15)
	if err != nil {
		t.Fatalf("weatherclient.New: %v", err)
	}
	return c
}

func TestRunConvergesOnBeamReach(t *testing.T) {
	m := stripMesh()
	y := &domain.Yacht{MaxSpeedMS: 10, LengthM: 10, TackTimeS: 120, JibeTimeS: 90}
	frame := domain.LocalFrame{OriginLat: 54.3, OriginLon: 18.5}

	points := make([]domain.WeatherPoint, len(m.Vertices))
	for i, v := range m.Vertices {
		points[i] = domain.WeatherPoint{Idx: i, Point: v}
	}
	assign := make([]int, len(m.Vertices))
	for i := range assign {
		assign[i] = i
	}

	waypoints := []domain.Point{{X: 0, Y: 0}, {X: 400, Y: 0}}
	cfg := config.Default()
	cfg.DeadAngleDeg = 30

	res, err := Run(context.Background(), frame, m, waypoints, y, testClient(t), points, assign, time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Profile.Segments) == 0 {
		t.Fatal("expected at least one routed segment")
	}
	if res.Profile.TotalDistanceM <= 0 {
		t.Error("expected a positive total distance")
	}
	if res.Profile.Iterations == 0 {
		t.Error("expected at least one loop iteration")
	}
}

func TestRunRejectsSingleWaypoint(t *testing.T) {
	m := stripMesh()
	y := &domain.Yacht{MaxSpeedMS: 10}
	frame := domain.LocalFrame{OriginLat: 54.3, OriginLon: 18.5}
	_, err := Run(context.Background(), frame, m, []domain.Point{{X: 0, Y: 0}}, y, testClient(t), []domain.WeatherPoint{{Idx: 0}}, []int{0}, time.Now().UTC(), config.Default())
	if err == nil {
		t.Fatal("expected an error for a single waypoint")
	}
}

func TestEtaAtArcLengthInterpolatesWithinEdge(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	edges := []domain.RawEdge{
		{DistanceM: 100, StartTime: start, EndTime: start.Add(100 * time.Second)},
		{DistanceM: 100, StartTime: start.Add(100 * time.Second), EndTime: start.Add(300 * time.Second)},
	}
	got := etaAtArcLength(edges, 150)
	want := start.Add(150 * time.Second)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestConfidenceForBandsByDistance(t *testing.T) {
	cases := []struct {
		dist float64
		want domain.ETAConfidence
	}{
		{100, domain.ConfidenceHigh},
		{1000, domain.ConfidenceMedium},
		{5000, domain.ConfidenceLow},
		{50000, domain.ConfidenceEstimated},
	}
	for _, c := range cases {
		if got := confidenceFor(c.dist); got != c.want {
			t.Errorf("confidenceFor(%v) = %v, want %v", c.dist, got, c.want)
		}
	}
}
