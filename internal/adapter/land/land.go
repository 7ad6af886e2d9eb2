// Package land serves land polygons from local GeoJSON tiles, indexed
// with an R-tree for fast bounding-box queries (§4.1 "land mask").
package land

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
)

// LocalStore serves land polygons from a directory of GeoJSON tile files
// (one FeatureCollection per file, arbitrary naming), loaded once and
// indexed with an R-tree for repeated bounding-box lookups.
type LocalStore struct {
	dir string

	mu    sync.Mutex
	tree  *rtreego.Rtree
	ready bool
}

// NewLocalStore creates a land-polygon adapter reading every *.geojson
// file under dir. An empty dir means every fetch returns an empty
// polygon (no land known, used offline and in tests).
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// indexedRing wraps one polygon ring (outer boundary or hole) for R-tree
// storage; Bounds satisfies rtreego.Spatial.
type indexedRing struct {
	ring   orb.Ring
	bound  orb.Bound
	isHole bool
}

func (r *indexedRing) Bounds() rtreego.Rect {
	point := rtreego.Point{r.bound.Min.Lon(), r.bound.Min.Lat()}
	lonLen := r.bound.Max.Lon() - r.bound.Min.Lon()
	latLen := r.bound.Max.Lat() - r.bound.Min.Lat()

	const epsilon = 0.0001
	if lonLen < epsilon {
		lonLen = epsilon
	}
	if latLen < epsilon {
		latLen = epsilon
	}

	rect, _ := rtreego.NewRect(point, []float64{lonLen, latLen})
	return rect
}

// Fetch satisfies ports.LandPolygonSource: it collects every land ring
// whose bounding box intersects bbox into a single multi-ring polygon,
// one ring per hit in R-tree search order, with no union or hole
// classification applied (rings after the first are not holes), and with
// point coordinates left in raw WGS84 (X=lon, Y=lat) for the caller to
// project into the request's local frame.
func (s *LocalStore) Fetch(ctx context.Context, bbox ports.BBox) (domain.Polygon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		if err := s.load(); err != nil {
			return domain.Polygon{}, fmt.Errorf("load land tiles: %w", err)
		}
		s.ready = true
	}

	if s.tree == nil {
		return domain.Polygon{}, nil
	}

	point := rtreego.Point{bbox.MinLon, bbox.MinLat}
	lengths := []float64{bbox.MaxLon - bbox.MinLon, bbox.MaxLat - bbox.MinLat}
	queryRect, err := rtreego.NewRect(point, lengths)
	if err != nil {
		return domain.Polygon{}, fmt.Errorf("query rect: %w", err)
	}

	hits := s.tree.SearchIntersect(queryRect)
	out := domain.Polygon{Rings: make([][]domain.Point, 0, len(hits))}
	for _, h := range hits {
		ir := h.(*indexedRing)
		ring := make([]domain.Point, len(ir.ring))
		for i, p := range ir.ring {
			ring[i] = domain.Point{X: p.Lon(), Y: p.Lat()}
		}
		out.Rings = append(out.Rings, ring)
	}
	return out, nil
}

// load reads every *.geojson file under s.dir and builds the R-tree
// index over their polygon rings.
func (s *LocalStore) load() error {
	if s.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var rings []*indexedRing
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".geojson") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		fc, err := geojson.UnmarshalFeatureCollection(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		rings = append(rings, ringsFromCollection(fc)...)
	}

	if len(rings) == 0 {
		return nil
	}

	tree := rtreego.NewTree(2, 25, 50)
	for _, r := range rings {
		tree.Insert(r)
	}
	s.tree = tree
	return nil
}

// ringsFromCollection flattens every Polygon/MultiPolygon feature's rings
// into indexedRing entries, each carrying its own precomputed bound.
func ringsFromCollection(fc *geojson.FeatureCollection) []*indexedRing {
	var out []*indexedRing
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			out = append(out, ringsFromPolygon(g)...)
		case orb.MultiPolygon:
			for _, poly := range g {
				out = append(out, ringsFromPolygon(poly)...)
			}
		}
	}
	return out
}

func ringsFromPolygon(poly orb.Polygon) []*indexedRing {
	out := make([]*indexedRing, 0, len(poly))
	for i, ring := range poly {
		out = append(out, &indexedRing{
			ring:   ring,
			bound:  ring.Bound(),
			isHole: i > 0,
		})
	}
	return out
}
