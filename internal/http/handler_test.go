package http

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/routerepo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/weatherrepo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/config"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routeerr"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLand struct{}

func (stubLand) Fetch(ctx context.Context, bbox ports.BBox) (domain.Polygon, error) {
	return domain.Polygon{}, nil
}

type stubBathy struct{}

func (stubBathy) FetchRaster(ctx context.Context, bbox ports.BBox, resolutionDeg float64) (*ports.DepthRaster, error) {
	return &ports.DepthRaster{
		Lats:   []float64{bbox.MinLat, bbox.MaxLat},
		Lons:   []float64{bbox.MinLon, bbox.MaxLon},
		DepthM: [][]float64{{40, 40}, {40, 40}},
	}, nil
}

type stubWeather struct{}

func (stubWeather) FetchBatchAtTime(ctx context.Context, queries []ports.WeatherQuery) (map[int]domain.WeatherObservation, error) {
	out := make(map[int]domain.WeatherObservation, len(queries))
	for _, q := range queries {
		out[q.Idx] = domain.WeatherObservation{WindSpeedKt: 12, WindDirDeg: 30, WaveHeightM: 0.5, WaveDirDeg: 30, WavePeriodS: 5}
	}
	return out, nil
}

type stubYachts struct{}

func (stubYachts) ByID(ctx context.Context, id string) (*domain.Yacht, error) {
	if id != "testboat" {
		return nil, routeerr.New(routeerr.KindInvalidInput, "unknown yacht "+id)
	}
	return &domain.Yacht{ID: id, MaxSpeedMS: 7.5, LengthM: 9, DraftM: 1.8, TackTimeS: 80, JibeTimeS: 50}, nil
}

func stubDeps() routing.Deps {
	return routing.Deps{
		Land:      stubLand{},
		Bathy:     stubBathy{},
		Weather:   stubWeather{},
		Yachts:    stubYachts{},
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}
}

func TestPlanRouteReturnsAPlannedVariant(t *testing.T) {
	h := NewHandler(stubDeps(), config.Default())
	router := SetupRouter(h, nil)

	body := `{"control_points":[{"lat":54.30,"lon":18.50},{"lat":54.40,"lon":18.70}],"yacht_id":"testboat","weather_points_budget":20}`
	req := httptest.NewRequest("POST", "/v1/routes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"variants"`)
}

func TestPlanRouteRejectsUnknownYacht(t *testing.T) {
	h := NewHandler(stubDeps(), config.Default())
	router := SetupRouter(h, nil)

	body := `{"control_points":[{"lat":54.30,"lon":18.50},{"lat":54.40,"lon":18.70}],"yacht_id":"ghost"}`
	req := httptest.NewRequest("POST", "/v1/routes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestPlanRouteRejectsMalformedJSON(t *testing.T) {
	h := NewHandler(stubDeps(), config.Default())
	router := SetupRouter(h, nil)

	req := httptest.NewRequest("POST", "/v1/routes", bytes.NewBufferString(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestPlanRouteRejectsTooFewControlPoints(t *testing.T) {
	h := NewHandler(stubDeps(), config.Default())
	router := SetupRouter(h, nil)

	body := `{"control_points":[{"lat":0,"lon":0}],"yacht_id":"testboat"}`
	req := httptest.NewRequest("POST", "/v1/routes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestHealthCheckReportsOK(t *testing.T) {
	h := NewHandler(stubDeps(), config.Default())
	router := SetupRouter(h, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
