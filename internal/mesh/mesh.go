// Package mesh builds the variable-density navigable-area mesh of spec
// §4.3: the (optionally eroded) water polygon is triangulated once with
// earcut-go, each base triangle is assigned a near/mid/far zone by its
// centroid's distance from the route line, and it is then refined by
// recursive four-way midpoint subdivision until its area is under that
// zone's cap or its smallest angle is below MinAngleDeg.
package mesh

import (
	"math"
	"sort"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/geo"

	earcut "github.com/mmp/earcut-go"
)

// Zone identifies which density ring a triangle belongs to.
type Zone int

const (
	ZoneNear Zone = iota
	ZoneMid
	ZoneFar
)

// Config carries the ring radii and per-zone area caps from §4.3.
type Config struct {
	RingRadiiM   [3]float64 // near, mid cutoffs from the route centerline
	AreaCapsM2   [3]float64 // near, mid, far max triangle area
	CoastClearM  float64
	MinAngleDeg  float64
}

// Triangle is one mesh face; Zone determines which area cap it was built
// and refined under.
type Triangle struct {
	A, B, C domain.Point
	Zone    Zone
}

// Build triangulates a water polygon into a zoned, capped mesh. routeline
// is the straightened reference polyline (the original control-point
// route projected into the local frame) used to assign each base
// triangle's centroid to a zone by its distance from the line.
func Build(water domain.Polygon, routeline []domain.Point, cfg Config) domain.Mesh {
	if len(water.Rings) == 0 {
		return domain.Mesh{}
	}

	eroded := water
	if cfg.CoastClearM > 0 {
		eroded = geo.ErodePolygon(water, cfg.CoastClearM)
		if len(eroded.Rings) == 0 {
			eroded = water
		}
	}

	base := triangulate(eroded)

	var out []Triangle
	for _, tri := range base {
		z := zoneOf(tri, routeline, cfg.RingRadiiM)
		out = append(out, refine(tri, z, cfg.AreaCapsM2[z], cfg.MinAngleDeg)...)
	}

	return toDomainMesh(out)
}

// triangulate runs earcut on the outer ring with remaining rings as
// holes.
func triangulate(p domain.Polygon) []Triangle {
	if len(p.Rings) == 0 {
		return nil
	}
	var rings [][]earcut.Vertex
	for _, ring := range p.Rings {
		if len(ring) < 3 {
			continue
		}
		verts := make([]earcut.Vertex, len(ring))
		for i, v := range ring {
			verts[i].P = [2]float64{v.X, v.Y}
		}
		rings = append(rings, verts)
	}
	if len(rings) == 0 {
		return nil
	}

	var tris []Triangle
	for _, t := range earcut.Triangulate(earcut.Polygon{Rings: rings}) {
		a := domain.Point{X: t.Vertices[0].P[0], Y: t.Vertices[0].P[1]}
		b := domain.Point{X: t.Vertices[1].P[0], Y: t.Vertices[1].P[1]}
		c := domain.Point{X: t.Vertices[2].P[0], Y: t.Vertices[2].P[1]}
		if isDegenerate(a, b, c) {
			continue
		}
		tris = append(tris, Triangle{A: a, B: b, C: c})
	}
	return tris
}

func centroid(t Triangle) domain.Point {
	return domain.Point{X: (t.A.X + t.B.X + t.C.X) / 3, Y: (t.A.Y + t.B.Y + t.C.Y) / 3}
}

func zoneOf(t Triangle, routeline []domain.Point, rings [3]float64) Zone {
	if len(routeline) < 2 {
		return ZoneFar
	}
	_, _, d := geo.NearestPointOnPolyline(centroid(t), routeline)
	switch {
	case d <= rings[0]:
		return ZoneNear
	case d <= rings[1]:
		return ZoneMid
	default:
		return ZoneFar
	}
}

func area(t Triangle) float64 {
	return math.Abs(geo.TriangleArea2(t.A, t.B, t.C)) / 2
}

// refine recursively splits a triangle into four by joining its three
// edge midpoints until every resulting triangle's area is at or below
// capM2. A triangle whose smallest angle is below minAngleDeg is kept
// unsplit even when it exceeds the cap, and degenerate children are
// dropped.
func refine(t Triangle, z Zone, capM2, minAngleDeg float64) []Triangle {
	if capM2 <= 0 || area(t) <= capM2 {
		return []Triangle{{A: t.A, B: t.B, C: t.C, Zone: z}}
	}
	if minAngle(t) < minAngleDeg {
		return []Triangle{{A: t.A, B: t.B, C: t.C, Zone: z}}
	}

	mAB := midpoint(t.A, t.B)
	mBC := midpoint(t.B, t.C)
	mCA := midpoint(t.C, t.A)

	children := []Triangle{
		{A: t.A, B: mAB, C: mCA},
		{A: mAB, B: t.B, C: mBC},
		{A: mCA, B: mBC, C: t.C},
		{A: mAB, B: mBC, C: mCA},
	}

	var out []Triangle
	for _, c := range children {
		if isDegenerate(c.A, c.B, c.C) {
			continue
		}
		out = append(out, refine(c, z, capM2, minAngleDeg)...)
	}
	return out
}

func midpoint(a, b domain.Point) domain.Point {
	return domain.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

func isDegenerate(a, b, c domain.Point) bool {
	return math.Abs(geo.TriangleArea2(a, b, c)) < 1e-6
}

// minAngle returns the smallest interior angle of the triangle in
// degrees; refine leaves a triangle unsplit when this is below the
// minimum angle (§4.3 "min-angle check").
func minAngle(t Triangle) float64 {
	la := dist(t.B, t.C)
	lb := dist(t.A, t.C)
	lc := dist(t.A, t.B)
	if la == 0 || lb == 0 || lc == 0 {
		return 0
	}
	angles := []float64{
		angleFromSides(lb, lc, la),
		angleFromSides(la, lc, lb),
		angleFromSides(la, lb, lc),
	}
	sort.Float64s(angles)
	return angles[0]
}

func angleFromSides(a, b, opposite float64) float64 {
	cos := (a*a + b*b - opposite*opposite) / (2 * a * b)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

func dist(a, b domain.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Hypot(dx, dy)
}

// toDomainMesh deduplicates vertices and builds the indexed triangle
// list the router and weather-point selector operate on.
func toDomainMesh(tris []Triangle) domain.Mesh {
	index := make(map[domain.Point]int)
	var verts []domain.Point
	var triangles [][3]int
	var zones []int

	vid := func(p domain.Point) int {
		key := domain.Point{X: round(p.X), Y: round(p.Y)}
		if i, ok := index[key]; ok {
			return i
		}
		i := len(verts)
		index[key] = i
		verts = append(verts, p)
		return i
	}

	for _, t := range tris {
		triangles = append(triangles, [3]int{vid(t.A), vid(t.B), vid(t.C)})
		zones = append(zones, int(t.Zone))
	}

	return domain.Mesh{Vertices: verts, Triangles: triangles, TriZones: zones}
}

// round snaps a coordinate to millimeter precision so that
// floating-point noise from repeated midpoint splits does not create
// duplicate vertices at a shared edge.
func round(v float64) float64 {
	const scale = 1000.0
	return float64(int64(v*scale+0.5)) / scale
}
