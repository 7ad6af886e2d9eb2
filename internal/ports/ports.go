// Package ports declares the external collaborators the core consumes and
// the sinks it writes to (§6). Concrete adapters live under
// internal/adapter/*; the core never imports them directly, only ports.
package ports

import (
	"context"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

// BBox is a WGS84 bounding box, minimum/maximum lat/lon.
type BBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// LandPolygonSource fetches land polygons intersecting a bounding box.
type LandPolygonSource interface {
	Fetch(ctx context.Context, bbox BBox) (domain.Polygon, error)
}

// DepthRaster is a regular lat/lon grid of depths in meters; positive
// values are deeper water, per §6.
type DepthRaster struct {
	Lats, Lons []float64
	DepthM     [][]float64 // [latIdx][lonIdx]
}

// BathymetrySource fetches a depth raster for a bounding box at a given
// horizontal resolution (degrees).
type BathymetrySource interface {
	FetchRaster(ctx context.Context, bbox BBox, resolutionDeg float64) (*DepthRaster, error)
}

// WeatherQuery names one weather sample request: a location and the time
// it must be valid for (the point's current ETA, §4.8).
type WeatherQuery struct {
	Idx      int
	Lat, Lon float64
	At       time.Time
}

// WeatherSource fetches a batch of weather observations for a single
// instant in time. The map is keyed by WeatherQuery.Idx.
type WeatherSource interface {
	FetchBatchAtTime(ctx context.Context, queries []WeatherQuery) (map[int]domain.WeatherObservation, error)
}

// YachtRepository resolves a yacht by ID.
type YachtRepository interface {
	ByID(ctx context.Context, id string) (*domain.Yacht, error)
}

// RouteRepository persists the final profile and its segments.
type RouteRepository interface {
	SaveProfile(ctx context.Context, profile domain.RouteProfile) error
}

// WeatherRepository stores the weather actually fetched during planning,
// preserving the IsDefault flag (§6).
type WeatherRepository interface {
	SaveForecast(ctx context.Context, pointIdx int, at time.Time, obs domain.WeatherObservation) error
}
