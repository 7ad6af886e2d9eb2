// Package detour implements the auxiliary shortest-path planner of spec
// §4.2: when the straight route polyline pierces land or shallows, it
// re-routes each leg through a coarse triangulation of the water polygon
// using Dijkstra, falling back to the original straight segment for any
// leg Dijkstra cannot solve.
package detour

import (
	"math"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/geo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/mesh"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routeerr"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

const (
	coarseAreaM2Default = 5000.0
	kNearest            = 20
	simplifyToleranceM  = 5.0
)

// Plan re-routes the polyline leg-by-leg through water, replacing each
// leg that the straight segment cannot traverse directly. Legs Dijkstra
// cannot solve keep their original straight segment (§4.2 "fails
// softly").
func Plan(polyline []domain.Point, water domain.Polygon, coarseAreaM2 float64) ([]domain.Point, error) {
	if len(polyline) < 2 {
		return nil, routeerr.New(routeerr.KindInvalidInput, "detour planning requires at least two points")
	}
	if len(water.Rings) == 0 {
		return nil, routeerr.New(routeerr.KindNoNavigableArea, "cannot detour through an empty water polygon")
	}
	if coarseAreaM2 <= 0 {
		coarseAreaM2 = coarseAreaM2Default
	}

	coarse := mesh.Build(water, polyline, mesh.Config{
		RingRadiiM: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
		AreaCapsM2: [3]float64{coarseAreaM2, coarseAreaM2, coarseAreaM2},
	})
	if len(coarse.Vertices) == 0 {
		return polyline, nil
	}

	g := buildGraph(coarse, water)

	out := []domain.Point{polyline[0]}
	for i := 0; i+1 < len(polyline); i++ {
		start, goal := polyline[i], polyline[i+1]
		if geo.Within([]domain.Point{start, goal}, water) && segmentInWater(start, goal, water) {
			out = append(out, goal)
			continue
		}
		leg, ok := solveLeg(g, coarse.Vertices, start, goal)
		if !ok {
			out = append(out, goal) // soft failure: keep the straight segment
			continue
		}
		simplified := geo.SimplifyRing(leg, simplifyToleranceM)
		out = append(out, simplified[1:]...)
	}
	return out, nil
}

// buildGraph builds the coarse adjacency graph: an edge between two
// triangle-adjacent vertices is kept only if the segment connecting them
// lies inside water (§4.2 step 2).
func buildGraph(m domain.Mesh, water domain.Polygon) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range m.Vertices {
		g.AddNode(simple.Node(i))
	}

	seen := make(map[[2]int]bool)
	link := func(a, b int) {
		if a == b {
			return
		}
		key := [2]int{a, b}
		if a > b {
			key = [2]int{b, a}
		}
		if seen[key] {
			return
		}
		seen[key] = true
		if !segmentInWater(m.Vertices[a], m.Vertices[b], water) {
			return
		}
		w := geo.Dist(m.Vertices[a], m.Vertices[b])
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(a), simple.Node(b), w))
	}
	for _, tri := range m.Triangles {
		link(tri[0], tri[1])
		link(tri[1], tri[2])
		link(tri[2], tri[0])
	}

	return g
}

// segmentInWater samples a handful of points along a-b and requires each
// to lie inside water -- a cheap approximation of "segment lies inside
// water" adequate for the coarse detour mesh's short edges.
func segmentInWater(a, b domain.Point, water domain.Polygon) bool {
	const samples = 4
	for i := 0; i <= samples; i++ {
		t := float64(i) / samples
		p := domain.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
		if !geo.PointInPolygon(p, water) {
			return false
		}
	}
	return true
}

// solveLeg connects start/goal as virtual nodes wired to their k-nearest
// coarse-mesh vertices (§4.2 step 3), then runs Dijkstra (§4.2 step 4).
func solveLeg(g *simple.WeightedUndirectedGraph, vertices []domain.Point, start, goal domain.Point) ([]domain.Point, bool) {
	startID := len(vertices)
	goalID := startID + 1

	leg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	graph.Copy(leg, g)
	leg.AddNode(simple.Node(startID))
	leg.AddNode(simple.Node(goalID))

	wireVirtualNode(leg, vertices, startID, start)
	wireVirtualNode(leg, vertices, goalID, goal)

	shortest := path.DijkstraFrom(simple.Node(startID), leg)
	nodes, weight := shortest.To(int64(goalID))
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return nil, false
	}

	out := make([]domain.Point, len(nodes))
	for i, n := range nodes {
		id := int(n.ID())
		switch id {
		case startID:
			out[i] = start
		case goalID:
			out[i] = goal
		default:
			out[i] = vertices[id]
		}
	}
	return out, true
}

func wireVirtualNode(g *simple.WeightedUndirectedGraph, vertices []domain.Point, nodeID int, p domain.Point) {
	neighbors := kNearestIDs(vertices, p, kNearest)
	for _, vid := range neighbors {
		w := geo.Dist(p, vertices[vid])
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(nodeID), simple.Node(vid), w))
	}
}

// kNearestIDs finds the k nearest coarse-mesh vertices to p by distance.
// The coarse detour mesh is small (area cap ~5000 m^2 per cell), so a
// direct partial sort is cheaper than maintaining a second spatial index
// alongside the one the main router already builds over the fine mesh.
func kNearestIDs(vertices []domain.Point, p domain.Point, k int) []int {
	type cand struct {
		id   int
		dist float64
	}
	var all []cand
	for i, v := range vertices {
		d := geo.Dist(p, v)
		all = append(all, cand{i, d})
	}
	// partial selection sort for the k smallest -- vertex counts in the
	// coarse detour mesh are small enough that this is not a bottleneck.
	for i := 0; i < k && i < len(all); i++ {
		minIdx := i
		for j := i + 1; j < len(all); j++ {
			if all[j].dist < all[minIdx].dist {
				minIdx = j
			}
		}
		all[i], all[minIdx] = all[minIdx], all[i]
	}
	n := k
	if n > len(all) {
		n = len(all)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].id
	}
	return out
}
