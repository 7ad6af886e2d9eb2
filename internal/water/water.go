// Package water builds the navigable water polygon of §4.1: a
// corridor around the user's route, with land and shallow-water
// polygons subtracted, repairing the route through the detour planner
// (internal/detour) when it pierces an obstacle.
package water

import (
	"context"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/detour"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/geo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routeerr"
)

const nmToM = 1852.0

// coincidentEpsilonM is the distance below which two control points are
// treated as the exact same point rather than merely close together.
const coincidentEpsilonM = 1e-6

// Config carries the corridor width and draft/clearance inputs of §4.1.
type Config struct {
	CorridorNM      float64
	DraftM          float64
	ClearanceM      float64
	BathyResDeg     float64
	DetourAreaCapM2 float64
}

// Result is the water polygon plus the (possibly detoured) route
// polyline that lies strictly inside it, both in the local frame.
//
// Degenerate marks the §8 boundary case of a two-point route whose start
// and goal fall within 1 m of each other: no polygon or mesh is built,
// and Water/Detoured are left zero-valued. Callers should short-circuit
// to a zero-segment profile instead of routing through Water.
type Result struct {
	Frame      domain.LocalFrame
	Water      domain.Polygon
	Polyline   []domain.Point
	Detoured   bool
	Degenerate bool
}

// Build runs §4.1 steps 1-5.
func Build(ctx context.Context, controls []domain.ControlPoint, cfg Config, land ports.LandPolygonSource, bathy ports.BathymetrySource) (*Result, error) {
	if len(controls) < 2 {
		return nil, routeerr.New(routeerr.KindInvalidInput, "at least two control points are required")
	}
	if cfg.CorridorNM <= 0 {
		return nil, routeerr.New(routeerr.KindInvalidInput, "corridor width must be positive")
	}

	frame := geo.ChooseLocalFrame(controls)
	polyline := geo.ProjectPolyline(frame, controls)

	if len(polyline) == 2 {
		// §8 draws a line between two boundary cases that look alike: a
		// request whose two control points are exactly the same point is
		// malformed input, while one whose start and goal are merely close
		// (but distinct) is a trivial, valid route that resolves to a
		// zero-segment profile instead of an error.
		d := geo.Dist(polyline[0], polyline[1])
		switch {
		case d < coincidentEpsilonM:
			return nil, routeerr.New(routeerr.KindInvalidInput, "two coincident control points")
		case d <= 1.0:
			return &Result{Frame: frame, Polyline: polyline, Degenerate: true}, nil
		}
	} else if polylineDegenerate(polyline) {
		return nil, routeerr.New(routeerr.KindInvalidInput, "two coincident control points")
	}

	widthM := cfg.CorridorNM * nmToM
	detoured := false

	for attempt := 0; attempt < 2; attempt++ {
		corridor := geo.BufferPolyline(polyline, widthM)
		corridor = geo.MakeValid(corridor)

		minLat, minLon, maxLat, maxLon := geo.BBoxOf(controls, widthM*3)
		bbox := ports.BBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}

		landWGS84, err := land.Fetch(ctx, bbox)
		if err != nil {
			return nil, routeerr.Wrap(routeerr.KindTransient, "land polygon fetch failed", err)
		}
		landLocal := projectWGS84Polygon(frame, landWGS84)

		waterZero := geo.Difference(corridor, landLocal)

		shallow, err := shallowPolygon(ctx, frame, bbox, cfg, bathy)
		if err != nil {
			return nil, routeerr.Wrap(routeerr.KindTransient, "bathymetry fetch failed", err)
		}
		waterLocal := geo.Difference(waterZero, shallow)
		waterLocal = geo.MakeValid(waterLocal)

		if geo.PolygonAreaM2(waterLocal) <= 1e-6 {
			return nil, routeerr.New(routeerr.KindNoNavigableArea, "water polygon is empty after subtracting land and shallows")
		}

		if geo.Within(polyline, waterLocal) {
			return &Result{Frame: frame, Water: waterLocal, Polyline: polyline, Detoured: detoured}, nil
		}

		newPolyline, err := detour.Plan(polyline, waterLocal, cfg.DetourAreaCapM2)
		if err != nil {
			return nil, err
		}
		polyline = newPolyline
		detoured = true
	}

	return nil, routeerr.New(routeerr.KindNoNavigableArea, "route still pierces an obstacle after detour planning")
}

// projectWGS84Polygon projects a polygon whose ring points carry raw
// WGS84 coordinates (X=lon, Y=lat, the convention external sources hand
// back in a domain.Polygon per ports.LandPolygonSource) into the local
// frame.
func projectWGS84Polygon(frame domain.LocalFrame, p domain.Polygon) domain.Polygon {
	out := domain.Polygon{Rings: make([][]domain.Point, len(p.Rings))}
	for i, ring := range p.Rings {
		projected := make([]domain.Point, len(ring))
		for j, pt := range ring {
			projected[j] = geo.ProjectPoint(frame, pt.Y, pt.X)
		}
		out.Rings[i] = projected
	}
	return out
}

// polylineDegenerate reports whether every point of line lies within 1 m
// of line[0]. It does not itself decide InvalidInput vs. success -- the
// caller distinguishes a two-point route (zero-segment success) from a
// longer route collapsed onto a single point (coincident control points).
func polylineDegenerate(line []domain.Point) bool {
	if len(line) < 2 {
		return true
	}
	for i := 1; i < len(line); i++ {
		if geo.Dist(line[0], line[i]) > 1.0 {
			return false
		}
	}
	return true
}
