package geo

import (
	"github.com/ctessum/polyclip-go"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

func toPolyclip(poly domain.Polygon) polyclip.Polygon {
	out := make(polyclip.Polygon, len(poly.Rings))
	for i, ring := range poly.Rings {
		contour := make(polyclip.Contour, len(ring))
		for j, p := range ring {
			contour[j] = polyclip.Point{X: p.X, Y: p.Y}
		}
		out[i] = contour
	}
	return out
}

func fromPolyclip(poly polyclip.Polygon) domain.Polygon {
	out := domain.Polygon{Rings: make([][]domain.Point, len(poly))}
	for i, contour := range poly {
		ring := make([]domain.Point, len(contour))
		for j, p := range contour {
			ring[j] = domain.Point{X: p.X, Y: p.Y}
		}
		out.Rings[i] = ring
	}
	return out
}

// Union returns the union of two polygons in the local frame.
func Union(a, b domain.Polygon) domain.Polygon {
	pa, pb := toPolyclip(a), toPolyclip(b)
	return fromPolyclip(pa.Construct(polyclip.UNION, pb))
}

// Difference returns a minus b.
func Difference(a, b domain.Polygon) domain.Polygon {
	pa, pb := toPolyclip(a), toPolyclip(b)
	return fromPolyclip(pa.Construct(polyclip.DIFFERENCE, pb))
}

// Intersection returns the overlap of a and b.
func Intersection(a, b domain.Polygon) domain.Polygon {
	pa, pb := toPolyclip(a), toPolyclip(b)
	return fromPolyclip(pa.Construct(polyclip.INTERSECTION, pb))
}

// UnionAll folds Union across a slice of polygons.
func UnionAll(polys []domain.Polygon) domain.Polygon {
	if len(polys) == 0 {
		return domain.Polygon{}
	}
	acc := polys[0]
	for _, p := range polys[1:] {
		acc = Union(acc, p)
	}
	return acc
}

// MakeValid repairs a self-intersecting polygon by unioning it with
// itself, the same trick the polyclip Construct implementation uses
// internally to resolve overlaps -- a cheap, dependency-light substitute
// for a full validity-repair routine, sufficient for the corridor-minus-
// land-minus-shallows pipeline of §4.1 where degeneracies are limited to
// overlapping buffered segments.
func MakeValid(p domain.Polygon) domain.Polygon {
	if len(p.Rings) == 0 {
		return p
	}
	cleaned := domain.Polygon{}
	for _, ring := range p.Rings {
		if len(ring) < 3 {
			continue
		}
		if len(cleaned.Rings) == 0 && len(ring) >= 3 {
			// keep outer ring even if degenerate-small; callers check area > eps separately
		}
		cleaned.Rings = append(cleaned.Rings, ring)
	}
	if len(cleaned.Rings) == 0 {
		return cleaned
	}
	self := domain.Polygon{Rings: [][]domain.Point{cleaned.Rings[0]}}
	repaired := Union(self, self)
	repaired.Rings = append(repaired.Rings, cleaned.Rings[1:]...)
	return repaired
}

// Within reports whether every vertex of line lies inside poly -- the
// §4.1 "route polyline is within Water" invariant. This is a vertex-only
// check; callers are expected to pass a sufficiently-sampled polyline
// (the mesh construction re-samples at triangle edges in practice).
func Within(line []domain.Point, poly domain.Polygon) bool {
	for _, p := range line {
		if !PointInPolygon(p, poly) {
			return false
		}
	}
	return true
}
