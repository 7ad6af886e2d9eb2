package geo

import (
	"math"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

// BufferPolyline buffers a polyline by widthM on each side with flat caps
// and mitered joins (§4.1 step 2). Implemented as the union of one
// rectangle per segment: consecutive rectangles overlap at the shared
// vertex, which produces a mitered-looking join without needing explicit
// miter-limit geometry, and leaves the end segments flat-capped since a
// rectangle's short edges are already perpendicular to the line.
func BufferPolyline(line []domain.Point, widthM float64) domain.Polygon {
	if len(line) < 2 || widthM <= 0 {
		return domain.Polygon{}
	}
	var rects []domain.Polygon
	for i := 0; i+1 < len(line); i++ {
		rects = append(rects, segmentRectangle(line[i], line[i+1], widthM))
	}
	return UnionAll(rects)
}

func segmentRectangle(a, b domain.Point, widthM float64) domain.Polygon {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return domain.Polygon{}
	}
	// unit perpendicular
	nx, ny := -dy/length, dx/length
	ox, oy := nx*widthM, ny*widthM
	ring := []domain.Point{
		{X: a.X + ox, Y: a.Y + oy},
		{X: b.X + ox, Y: b.Y + oy},
		{X: b.X - ox, Y: b.Y - oy},
		{X: a.X - ox, Y: a.Y - oy},
	}
	return domain.Polygon{Rings: [][]domain.Point{ring}}
}

// ErodePolygon shrinks a polygon's outer boundary inward by distanceM:
// each vertex of the outer ring is moved distanceM along the average of
// its two adjacent edges' inward normals (see offsetRingInward). Holes
// are left untouched (eroding a
// hole would grow it, which is not needed for the mid/far mesh zones'
// "erode by coast_clear_m" step of §4.3 -- there only the outer coastline
// boundary needs pulling back from the shore).
func ErodePolygon(p domain.Polygon, distanceM float64) domain.Polygon {
	if len(p.Rings) == 0 || distanceM <= 0 {
		return p
	}
	outer := p.Rings[0]
	inward := offsetRingInward(outer, distanceM)
	if len(inward) < 3 {
		return domain.Polygon{}
	}
	out := domain.Polygon{Rings: [][]domain.Point{inward}}
	out.Rings = append(out.Rings, p.Rings[1:]...)
	return out
}

// offsetRingInward moves each vertex along the average of its two edge
// inward normals, a simple straight-skeleton-free erosion adequate for
// the mesh's coast-clearance margin (not used for any hard invariant).
func offsetRingInward(ring []domain.Point, distanceM float64) []domain.Point {
	n := len(ring)
	if n < 3 {
		return ring
	}
	// inwardNormal points inward for a clockwise ring; flip it for a
	// counter-clockwise one (positive RingArea).
	sign := 1.0
	if RingArea(ring) > 0 {
		sign = -1
	}
	out := make([]domain.Point, n)
	for i := 0; i < n; i++ {
		prev := ring[(i-1+n)%n]
		cur := ring[i]
		next := ring[(i+1)%n]

		n1x, n1y := inwardNormal(prev, cur)
		n2x, n2y := inwardNormal(cur, next)

		nx, ny := n1x+n2x, n1y+n2y
		length := math.Hypot(nx, ny)
		if length < 1e-9 {
			out[i] = cur
			continue
		}
		nx, ny = sign*nx/length, sign*ny/length
		out[i] = domain.Point{X: cur.X + nx*distanceM, Y: cur.Y + ny*distanceM}
	}
	return out
}

func inwardNormal(a, b domain.Point) (float64, float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return 0, 0
	}
	// For a clockwise ring, the inward normal is the right-hand perpendicular.
	return dy / length, -dx / length
}
