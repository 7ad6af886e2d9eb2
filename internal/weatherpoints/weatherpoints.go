// Package weatherpoints selects the representative sampling locations for
// weather fetches (§4.4): a budget of points split 40/40/20 across
// near/mid/far mesh zones, deduplicated against each other with a 100m
// exclusion radius via a gonum KD-tree, and finally mapped back onto
// every mesh vertex by nearest sample within D_max.
package weatherpoints

import (
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/geo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/mesh"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Config carries the point budget and dedup/mapping radii from §4.4.
type Config struct {
	Budget       int
	DedupRadiusM float64
	DMaxM        float64 // max distance from a mesh vertex to its assigned sample
}

// Select builds the weather-point set for a mesh: every mesh vertex is a
// candidate in the nearest zone of any triangle that uses it, candidates
// are taken in mesh vertex order with no further ranking, and each zone's
// share of the 40/40/20 budget split is filled while deduplicating within
// DedupRadiusM.
func Select(m domain.Mesh, budget Config) []domain.WeatherPoint {
	if len(m.Vertices) == 0 {
		return nil
	}

	near, mid, far := bucketVertices(m)

	caps := splitBudget(budget.Budget)
	var points []domain.Point
	points = appendDeduped(points, near, caps[0], budget.DedupRadiusM)
	points = appendDeduped(points, mid, caps[1], budget.DedupRadiusM)
	points = appendDeduped(points, far, caps[2], budget.DedupRadiusM)

	out := make([]domain.WeatherPoint, len(points))
	for i, p := range points {
		out[i] = domain.WeatherPoint{Idx: i, Point: p}
	}
	return out
}

// splitBudget divides the total into 40/40/20 near/mid/far shares,
// handing any rounding remainder to the near zone (closest to the route,
// where resolution matters most).
func splitBudget(total int) [3]int {
	mid := total * 40 / 100
	far := total * 20 / 100
	near := total - mid - far
	return [3]int{near, mid, far}
}

func bucketVertices(m domain.Mesh) (near, mid, far []domain.Point) {
	seen := make([]bool, len(m.Vertices))
	zoneOfVertex := make([]int, len(m.Vertices))
	for i := range zoneOfVertex {
		zoneOfVertex[i] = -1
	}
	for ti, tri := range m.Triangles {
		z := mesh.ZoneFar
		if ti < len(m.TriZones) {
			z = mesh.Zone(m.TriZones[ti])
		}
		for _, vi := range tri {
			if zoneOfVertex[vi] == -1 || mesh.Zone(zoneOfVertex[vi]) > z {
				zoneOfVertex[vi] = int(z)
			}
		}
	}
	for i, v := range m.Vertices {
		if seen[i] {
			continue
		}
		seen[i] = true
		switch mesh.Zone(zoneOfVertex[i]) {
		case mesh.ZoneNear:
			near = append(near, v)
		case mesh.ZoneMid:
			mid = append(mid, v)
		default:
			far = append(far, v)
		}
	}
	return
}

// appendDeduped takes up to cap points from candidates into acc, skipping
// any candidate within radiusM of an already-accepted point (either in
// acc or earlier in this call).
func appendDeduped(acc []domain.Point, candidates []domain.Point, budgetCap int, radiusM float64) []domain.Point {
	if budgetCap <= 0 || len(candidates) == 0 {
		return acc
	}

	tree := kdtree.New(toKDPoints(acc), false)
	n := len(acc)
	taken := 0
	for _, c := range candidates {
		if taken >= budgetCap {
			break
		}
		q := kdtree.Point{c.X, c.Y}
		if n > 0 {
			_, distSq := tree.Nearest(q)
			if distSq < radiusM*radiusM {
				continue
			}
		}
		tree.Insert(q, false)
		n++
		acc = append(acc, c)
		taken++
	}
	return acc
}

func toKDPoints(pts []domain.Point) kdtree.Points {
	out := make(kdtree.Points, len(pts))
	for i, p := range pts {
		out[i] = kdtree.Point{p.X, p.Y}
	}
	return out
}

// AssignVertices maps every mesh vertex to its nearest weather point
// within DMaxM, returning a parallel slice (vertex index -> weather
// point index, or -1 if none is within range). Ties break on the lower
// weather-point index (§5 determinism).
func AssignVertices(vertices []domain.Point, points []domain.WeatherPoint, dMaxM float64) []int {
	assign := make([]int, len(vertices))
	for i, v := range vertices {
		best := -1
		bestDist := dMaxM
		for _, wp := range points {
			d := geo.Dist(v, wp.Point)
			if d < bestDist || (d == bestDist && best != -1 && wp.Idx < best) {
				bestDist = d
				best = wp.Idx
			}
		}
		assign[i] = best
	}
	return assign
}
