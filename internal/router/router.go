// Package router implements the A* sailing router (§4.7): builds a
// weighted undirected graph from the C3 mesh, snaps the start/goal to
// their nearest vertices with a gonum KD-tree, and searches it with
// gonum/graph/path.AStar using internal/routecost edge weights. Falls
// back to a "safe" variant that refuses any edge touching a vertex with
// no valid weather when the nominal search finds nothing.
package router

import (
	"math"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/geo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routecost"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routeerr"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Graph wraps the mesh as a gonum weighted undirected graph plus the
// per-vertex navigability/weather needed to evaluate edge weights.
type Graph struct {
	g          *simple.WeightedUndirectedGraph
	mesh       domain.Mesh
	yacht      *domain.Yacht
	weather    []domain.WeatherObservation // one per mesh vertex, indexed by vertex id
	navigable  []bool
	deadAngle  float64
	kdt        *kdtree.Tree
	kdtIndex   []int // kdtree insertion order -> vertex id
}

// Build constructs the routing graph for one mesh. weatherAtVertex and
// navigable must be parallel to mesh.Vertices.
func Build(m domain.Mesh, y *domain.Yacht, weatherAtVertex []domain.WeatherObservation, navigable []bool, deadAngleDeg float64) *Graph {
	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range m.Vertices {
		wg.AddNode(simple.Node(i))
	}

	seen := make(map[[2]int]bool)
	addEdge := func(a, b int) {
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
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(a), simple.Node(b), 1))
	}
	for _, tri := range m.Triangles {
		addEdge(tri[0], tri[1])
		addEdge(tri[1], tri[2])
		addEdge(tri[2], tri[0])
	}

	pts := make(kdtree.Points, len(m.Vertices))
	idx := make([]int, len(m.Vertices))
	for i, v := range m.Vertices {
		pts[i] = kdtree.Point{v.X, v.Y}
		idx[i] = i
	}
	tree := kdtree.New(pts, false)

	return &Graph{
		g:         wg,
		mesh:      m,
		yacht:     y,
		weather:   weatherAtVertex,
		navigable: navigable,
		deadAngle: deadAngleDeg,
		kdt:       tree,
		kdtIndex:  idx,
	}
}

// Nearest returns the mesh vertex index closest to p.
func (r *Graph) Nearest(p domain.Point) int {
	q := kdtree.Point{p.X, p.Y}
	nearest, _ := r.kdt.Nearest(q)
	np := nearest.(kdtree.Point)
	for i, v := range r.mesh.Vertices {
		if v.X == np[0] && v.Y == np[1] {
			return i
		}
	}
	return -1
}

// Route runs A* from startVertex to goalVertex and returns the path as a
// sequence of vertex indices, or a routeerr.KindNoRoute error after
// trying both the nominal and the safe-fallback variant (§4.7).
func Route(rg *Graph, startVertex, goalVertex int, departBearing *routecost.Heading) ([]int, error) {
	path, ok := runAStar(rg, startVertex, goalVertex, departBearing, false)
	if ok {
		return path, nil
	}
	path, ok = runAStar(rg, startVertex, goalVertex, departBearing, true)
	if ok {
		return path, nil
	}
	return nil, routeerr.New(routeerr.KindNoRoute, "no path found by A* or the safe fallback")
}

func runAStar(rg *Graph, start, goal int, initialHeading *routecost.Heading, safe bool) ([]int, bool) {
	shim := weightedShim{
		WeightedUndirectedGraph: rg.g,
		rg:                      rg,
		start:                   start,
		initialHeading:          initialHeading,
		safe:                    safe,
	}

	heuristic := path.Heuristic(func(u, v graph.Node) float64 {
		ui, vi := int(u.ID()), int(v.ID())
		return routecost.HeuristicSeconds(rg.mesh.Vertices[ui], rg.mesh.Vertices[vi], rg.yacht, 15*0.514444)
	})

	shortest := path.AStar(simple.Node(start), simple.Node(goal), shim, heuristic)
	nodes, wt := shortest.To(int64(goal))
	if len(nodes) == 0 || math.IsInf(wt, 1) {
		return nil, false
	}
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = int(n.ID())
	}
	return out, true
}

// weightedShim adapts the base mesh graph to gonum's graph.Weighted
// interface, computing each edge's weight on demand from
// internal/routecost instead of a fixed stored weight -- the mesh graph
// itself only stores unit placeholder weights (see Build).
type weightedShim struct {
	*simple.WeightedUndirectedGraph
	rg             *Graph
	start          int
	initialHeading *routecost.Heading
	safe           bool
}

func (s weightedShim) Weight(xid, yid int64) (float64, bool) {
	if xid == yid {
		return 0, true
	}
	ui, vi := int(xid), int(yid)
	if s.WeightedUndirectedGraph.WeightedEdge(xid, yid) == nil {
		return math.Inf(1), false
	}
	if !s.rg.navigable[vi] || (s.safe && !s.rg.navigable[ui]) {
		return math.Inf(1), true
	}
	var prev *routecost.Heading
	if ui == s.start {
		prev = s.initialHeading
	}
	cost := routecost.EdgeCostSeconds(s.rg.mesh.Vertices[ui], s.rg.mesh.Vertices[vi], s.rg.weather[vi], s.rg.weather[ui], s.rg.yacht, s.rg.deadAngle, prev)
	return cost, true
}

// Bearing returns the bearing from mesh vertex from to vertex to, so the
// ETA loop (C8) can pass the yacht's previous heading into Route.
func Bearing(m domain.Mesh, from, to int) float64 {
	return geo.Bearing(m.Vertices[from], m.Vertices[to])
}
