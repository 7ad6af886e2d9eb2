package water

import (
	"context"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/geo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
)

// shallowPolygon derives the "too shallow to sail" polygon from a
// bathymetry raster (§4.1 step 4): every raster cell whose depth is less
// than draft+clearance becomes a small rectangle in the local frame, and
// the rectangles are unioned. Depths are positive-down-is-deeper per §6.
func shallowPolygon(ctx context.Context, frame domain.LocalFrame, bbox ports.BBox, cfg Config, bathy ports.BathymetrySource) (domain.Polygon, error) {
	resDeg := cfg.BathyResDeg
	if resDeg <= 0 {
		resDeg = 0.01
	}
	raster, err := bathy.FetchRaster(ctx, bbox, resDeg)
	if err != nil {
		return domain.Polygon{}, err
	}
	if raster == nil || len(raster.Lats) < 2 || len(raster.Lons) < 2 {
		return domain.Polygon{}, nil
	}

	threshold := cfg.DraftM + cfg.ClearanceM

	var cells []domain.Polygon
	for i := 0; i+1 < len(raster.Lats); i++ {
		for j := 0; j+1 < len(raster.Lons); j++ {
			d := raster.DepthM[i][j]
			if d >= threshold {
				continue
			}
			lat0, lat1 := raster.Lats[i], raster.Lats[i+1]
			lon0, lon1 := raster.Lons[j], raster.Lons[j+1]
			ring := []domain.Point{
				geo.ProjectPoint(frame, lat0, lon0),
				geo.ProjectPoint(frame, lat0, lon1),
				geo.ProjectPoint(frame, lat1, lon1),
				geo.ProjectPoint(frame, lat1, lon0),
			}
			cells = append(cells, domain.Polygon{Rings: [][]domain.Point{ring}})
		}
	}
	if len(cells) == 0 {
		return domain.Polygon{}, nil
	}
	return geo.UnionAll(cells), nil
}
