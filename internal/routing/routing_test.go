package routing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/routerepo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/weatherrepo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/config"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
)

type noLand struct{}

func (noLand) Fetch(ctx context.Context, bbox ports.BBox) (domain.Polygon, error) {
	return domain.Polygon{}, nil
}

type flatBathy struct{ depthM float64 }

func (f flatBathy) FetchRaster(ctx context.Context, bbox ports.BBox, resolutionDeg float64) (*ports.DepthRaster, error) {
	return &ports.DepthRaster{
		Lats: []float64{bbox.MinLat, bbox.MaxLat},
		Lons: []float64{bbox.MinLon, bbox.MaxLon},
		DepthM: [][]float64{{f.depthM, f.depthM}, {f.depthM, f.depthM}},
	}, nil
}

type steadyWeather struct{}

func (steadyWeather) FetchBatchAtTime(ctx context.Context, queries []ports.WeatherQuery) (map[int]domain.WeatherObservation, error) {
	out := make(map[int]domain.WeatherObservation, len(queries))
	for _, q := range queries {
		out[q.Idx] = domain.WeatherObservation{
			WindSpeedKt: 14, WindDirDeg: 45,
			WaveHeightM: 0.6, WaveDirDeg: 45, WavePeriodS: 6,
		}
	}
	return out, nil
}

type fixedYacht struct{ y *domain.Yacht }

func (f fixedYacht) ByID(ctx context.Context, id string) (*domain.Yacht, error) {
	if f.y == nil {
		return nil, fmt.Errorf("no yacht registered for %q", id)
	}
	return f.y, nil
}

func testYacht() *domain.Yacht {
	return &domain.Yacht{ID: "testboat", MaxSpeedMS: 8, LengthM: 10, DraftM: 2, TackTimeS: 90, JibeTimeS: 60}
}

func intPtr(v int) *int { return &v }

func TestPlanProducesASingleDefaultVariant(t *testing.T) {
	deps := Deps{
		Land:      noLand{},
		Bathy:     flatBathy{depthM: 50},
		Weather:   steadyWeather{},
		Yachts:    fixedYacht{y: testYacht()},
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}
	req := Request{
		ControlPoints: []domain.ControlPoint{
			{Lat: 54.30, Lon: 18.50},
			{Lat: 54.40, Lon: 18.70},
		},
		YachtID:             "testboat",
		CorridorNM:          1,
		WeatherPointsBudget: intPtr(20),
	}

	resp, err := Plan(context.Background(), deps, req, config.Default())
	require.NoError(t, err)
	require.Len(t, resp.Variants, 1, "a request with no departure window should produce a single variant")
	assert.Greater(t, resp.Variants[0].TotalDistanceNM, 0.0)
	assert.Equal(t, 0, resp.BestVariantIndex)
}

func TestPlanEvaluatesEveryDepartureWindowSample(t *testing.T) {
	deps := Deps{
		Land:      noLand{},
		Bathy:     flatBathy{depthM: 50},
		Weather:   steadyWeather{},
		Yachts:    fixedYacht{y: testYacht()},
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}
	start := time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)
	req := Request{
		ControlPoints: []domain.ControlPoint{
			{Lat: 54.30, Lon: 18.50},
			{Lat: 54.40, Lon: 18.70},
		},
		YachtID:             "testboat",
		CorridorNM:          1,
		WeatherPointsBudget: intPtr(20),
		DepartureWindow:     &DepartureWindow{Start: start, End: start.Add(4 * time.Hour), NumSamples: 3},
	}

	resp, err := Plan(context.Background(), deps, req, config.Default())
	require.NoError(t, err)
	require.Len(t, resp.Variants, 3)
	assert.True(t, resp.BestVariantIndex >= 0 && resp.BestVariantIndex < len(resp.Variants),
		"best variant index %d out of range", resp.BestVariantIndex)
}

func TestPlanRejectsUnknownYacht(t *testing.T) {
	deps := Deps{
		Land:      noLand{},
		Bathy:     flatBathy{depthM: 50},
		Weather:   steadyWeather{},
		Yachts:    fixedYacht{y: nil},
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}
	req := Request{
		ControlPoints: []domain.ControlPoint{
			{Lat: 54.30, Lon: 18.50},
			{Lat: 54.40, Lon: 18.70},
		},
		YachtID:             "missing",
		CorridorNM:          1,
		WeatherPointsBudget: intPtr(20),
	}
	_, err := Plan(context.Background(), deps, req, config.Default())
	assert.Error(t, err, "expected an error for an unknown yacht ID")
}

func TestPlanReturnsZeroSegmentForNearCoincidentStartGoal(t *testing.T) {
	deps := Deps{
		Land:      noLand{},
		Bathy:     flatBathy{depthM: 50},
		Weather:   steadyWeather{},
		Yachts:    fixedYacht{y: testYacht()},
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}
	req := Request{
		ControlPoints: []domain.ControlPoint{
			{Lat: 54.30, Lon: 18.50},
			{Lat: 54.300005, Lon: 18.50},
		},
		YachtID:             "testboat",
		CorridorNM:          1,
		WeatherPointsBudget: intPtr(20),
	}

	resp, err := Plan(context.Background(), deps, req, config.Default())
	require.NoError(t, err, "start within 1m of goal should succeed, not error")
	require.Len(t, resp.Variants, 1)
	v := resp.Variants[0]
	assert.Equal(t, 0.0, v.TotalDistanceNM)
	assert.True(t, v.Converged)
	assert.Equal(t, 1, v.Iterations)
	assert.Empty(t, v.Segments)
}

func TestPlanRejectsExplicitZeroWeatherBudget(t *testing.T) {
	deps := Deps{
		Land:      noLand{},
		Bathy:     flatBathy{depthM: 50},
		Weather:   steadyWeather{},
		Yachts:    fixedYacht{y: testYacht()},
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}
	req := Request{
		ControlPoints: []domain.ControlPoint{
			{Lat: 54.30, Lon: 18.50},
			{Lat: 54.40, Lon: 18.70},
		},
		YachtID:             "testboat",
		CorridorNM:          1,
		WeatherPointsBudget: intPtr(0),
	}

	_, err := Plan(context.Background(), deps, req, config.Default())
	assert.Error(t, err, "an explicit budget of zero should be InvalidInput, not silently defaulted")
}

func TestPlanRejectsInvertedRingRadii(t *testing.T) {
	deps := Deps{
		Land:      noLand{},
		Bathy:     flatBathy{depthM: 50},
		Weather:   steadyWeather{},
		Yachts:    fixedYacht{y: testYacht()},
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}
	req := Request{
		ControlPoints: []domain.ControlPoint{
			{Lat: 54.30, Lon: 18.50},
			{Lat: 54.40, Lon: 18.70},
		},
		YachtID:             "testboat",
		CorridorNM:          1,
		WeatherPointsBudget: intPtr(20),
		RingRadiiM:          [3]float64{3000, 2000, 1000},
	}

	_, err := Plan(context.Background(), deps, req, config.Default())
	assert.Error(t, err, "ring radii out of near<mid<far order should be InvalidInput")
}

func TestPlanRejectsInvertedAreaCaps(t *testing.T) {
	deps := Deps{
		Land:      noLand{},
		Bathy:     flatBathy{depthM: 50},
		Weather:   steadyWeather{},
		Yachts:    fixedYacht{y: testYacht()},
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}
	req := Request{
		ControlPoints: []domain.ControlPoint{
			{Lat: 54.30, Lon: 18.50},
			{Lat: 54.40, Lon: 18.70},
		},
		YachtID:             "testboat",
		CorridorNM:          1,
		WeatherPointsBudget: intPtr(20),
		RingRadiiM:          [3]float64{500, 1500, 3000},
		AreaCapsM2:          [3]float64{5_000_000, 3_000_000, 1_000_000},
	}

	_, err := Plan(context.Background(), deps, req, config.Default())
	assert.Error(t, err, "area caps with a1>a3 should be InvalidInput")
}
