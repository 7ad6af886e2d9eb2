package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/config"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routeerr"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routing"
)

// Handler serves the routing HTTP API.
type Handler struct {
	deps routing.Deps
	cfg  config.Config
}

// NewHandler creates a new HTTP handler over the given collaborators and
// baseline request-tunable defaults.
func NewHandler(deps routing.Deps, cfg config.Config) *Handler {
	return &Handler{deps: deps, cfg: cfg}
}

type controlPointBody struct {
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Label     string     `json:"label,omitempty"`
}

type departureWindowBody struct {
	Start      time.Time `json:"start" binding:"required"`
	End        time.Time `json:"end" binding:"required"`
	NumSamples int       `json:"num_samples" binding:"required,min=1,max=10"`
}

// planRouteBody is the §6 request payload.
type planRouteBody struct {
	ControlPoints       []controlPointBody   `json:"control_points" binding:"required,min=2,dive"`
	YachtID             string               `json:"yacht_id" binding:"required"`
	CorridorNM          float64              `json:"corridor_nm"`
	RingRadiiM          [3]float64           `json:"ring_radii"`
	AreaCapsM2          [3]float64           `json:"area_caps"`
	ShorelineAvoidM     float64              `json:"shoreline_avoid_m"`
	WeatherPointsBudget *int                 `json:"weather_points_budget,omitempty"`
	DepartureWindow     *departureWindowBody `json:"departure_window,omitempty"`
}

type segmentBody struct {
	FromLat     float64   `json:"from_lat"`
	FromLon     float64   `json:"from_lon"`
	ToLat       float64   `json:"to_lat"`
	ToLon       float64   `json:"to_lon"`
	DistanceNM  float64   `json:"distance_nm"`
	BearingDeg  float64   `json:"bearing_deg"`
	BoatSpeedKt float64   `json:"boat_speed_kt"`
	TWADeg      float64   `json:"twa_deg"`
	WaveHeightM float64   `json:"wave_height_m"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Maneuver    string    `json:"maneuver"`
}

type variantBody struct {
	DepartureTime     time.Time     `json:"departure_time"`
	WaypointsWGS84    [][2]float64  `json:"waypoints_wgs84"`
	Segments          []segmentBody `json:"segments"`
	TotalTimeHours    float64       `json:"total_time_hours"`
	TotalDistanceNM   float64       `json:"total_distance_nm"`
	AverageSpeedKnots float64       `json:"average_speed_knots"`
	TacksCount        int           `json:"tacks_count"`
	JibesCount        int           `json:"jibes_count"`
	DifficultyScore   float64       `json:"difficulty_score"`
	Converged         bool          `json:"converged"`
	Iterations        int           `json:"iterations"`
}

type weatherStatsBody struct {
	TotalRequests int `json:"total_requests"`
	CacheHits     int `json:"cache_hits"`
	APICalls      int `json:"api_calls"`
}

type planRouteResponseBody struct {
	Variants         []variantBody    `json:"variants"`
	BestVariantIndex int              `json:"best_variant_index"`
	WeatherStats     weatherStatsBody `json:"weather_stats"`
}

// PlanRoute handles POST /v1/routes.
func (h *Handler) PlanRoute(c *gin.Context) {
	var body planRouteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	req := routing.Request{
		ControlPoints:       toDomainControlPoints(body.ControlPoints),
		YachtID:             body.YachtID,
		CorridorNM:          body.CorridorNM,
		RingRadiiM:          body.RingRadiiM,
		AreaCapsM2:          body.AreaCapsM2,
		ShorelineAvoidM:     body.ShorelineAvoidM,
		WeatherPointsBudget: body.WeatherPointsBudget,
	}
	if body.DepartureWindow != nil {
		req.DepartureWindow = &routing.DepartureWindow{
			Start:      body.DepartureWindow.Start,
			End:        body.DepartureWindow.End,
			NumSamples: body.DepartureWindow.NumSamples,
		}
	}

	resp, err := routing.Plan(c.Request.Context(), h.deps, req, h.cfg)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toResponseBody(resp))
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func toDomainControlPoints(in []controlPointBody) []domain.ControlPoint {
	out := make([]domain.ControlPoint, len(in))
	for i, cp := range in {
		out[i] = domain.ControlPoint{Lat: cp.Lat, Lon: cp.Lon, Timestamp: cp.Timestamp, Label: cp.Label}
	}
	return out
}

func toResponseBody(resp *routing.Response) planRouteResponseBody {
	variants := make([]variantBody, len(resp.Variants))
	for i, v := range resp.Variants {
		segs := make([]segmentBody, len(v.Segments))
		for j, s := range v.Segments {
			segs[j] = segmentBody{
				FromLat: s.FromLat, FromLon: s.FromLon,
				ToLat: s.ToLat, ToLon: s.ToLon,
				DistanceNM:  s.DistanceNM,
				BearingDeg:  s.BearingDeg,
				BoatSpeedKt: s.BoatSpeedKt,
				TWADeg:      s.TWADeg,
				WaveHeightM: s.WaveHeightM,
				StartTime:   s.StartTime,
				EndTime:     s.EndTime,
				Maneuver:    s.Maneuver,
			}
		}
		variants[i] = variantBody{
			DepartureTime:     v.DepartureTime,
			WaypointsWGS84:    v.WaypointsWGS84,
			Segments:          segs,
			TotalTimeHours:    v.TotalTimeHours,
			TotalDistanceNM:   v.TotalDistanceNM,
			AverageSpeedKnots: v.AverageSpeedKnots,
			TacksCount:        v.TacksCount,
			JibesCount:        v.JibesCount,
			DifficultyScore:   v.DifficultyScore,
			Converged:         v.Converged,
			Iterations:        v.Iterations,
		}
	}
	return planRouteResponseBody{
		Variants:         variants,
		BestVariantIndex: resp.BestVariantIndex,
		WeatherStats: weatherStatsBody{
			TotalRequests: resp.WeatherStats.TotalRequests,
			CacheHits:     resp.WeatherStats.CacheHits,
			APICalls:      resp.WeatherStats.APICalls,
		},
	}
}

// statusFor maps a routeerr.Kind to the HTTP status appropriate for an
// equivalent user-facing validation failure.
func statusFor(err error) int {
	switch {
	case routeerr.Is(err, routeerr.KindInvalidInput):
		return http.StatusBadRequest
	case routeerr.Is(err, routeerr.KindNoNavigableArea), routeerr.Is(err, routeerr.KindNoRoute):
		return http.StatusUnprocessableEntity
	case routeerr.Is(err, routeerr.KindWeatherFetchFailed), routeerr.Is(err, routeerr.KindTransient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
