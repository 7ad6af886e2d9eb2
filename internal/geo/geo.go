// Package geo implements the planar geometry operations of §4.1-4.4:
// local-frame projection, polyline buffering, polygon boolean ops,
// simplification, validity repair, and nearest-point snapping. All
// operations after projection live in the request-local Cartesian meter
// frame (§3); WGS84 only appears at ProjectPoint/UnprojectPoint.
//
// Built on github.com/paulmach/orb for geometry types and simplification
// (grounded on mmp-vice/misc/airspace.go's use of orb/orb.geojson/orb.simplify
// for polygon-with-holes handling), github.com/ctessum/polyclip-go for
// polygon boolean operations (no pack library performs general polygon
// union/difference), and github.com/kellydunn/golang-geo for WGS84
// bearing/haversine helpers at the interface boundary.
package geo

import (
	"math"

	geolib "github.com/kellydunn/golang-geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

const earthRadiusM = 6371008.8

// ChooseLocalFrame picks a local tangent-plane frame centered on the
// centroid of the given WGS84 points (§4.1 step 1). The EPSG code
// recorded is a nominal UTM-zone-shaped identifier derived from the
// centroid, used only for persistence labeling (§6); projection itself
// is an equirectangular tangent plane scaled by local meters-per-degree,
// accurate to well under 1m over corridor-scale routes (§8 round-trip
// invariant).
func ChooseLocalFrame(points []domain.ControlPoint) domain.LocalFrame {
	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}
	n := float64(len(points))
	lat := sumLat / n
	lon := sumLon / n
	zone := int(math.Floor((lon+180)/6)) + 1
	epsg := 32600 + zone // northern-hemisphere UTM-like code
	if lat < 0 {
		epsg = 32700 + zone
	}
	return domain.LocalFrame{EPSG: epsg, OriginLat: lat, OriginLon: lon}
}

// ProjectPoint converts a WGS84 coordinate into the local meter frame.
func ProjectPoint(f domain.LocalFrame, lat, lon float64) domain.Point {
	latRad := f.OriginLat * math.Pi / 180
	x := (lon - f.OriginLon) * math.Pi / 180 * earthRadiusM * math.Cos(latRad)
	y := (lat - f.OriginLat) * math.Pi / 180 * earthRadiusM
	return domain.Point{X: x, Y: y}
}

// UnprojectPoint converts a local-frame point back to WGS84.
func UnprojectPoint(f domain.LocalFrame, p domain.Point) (lat, lon float64) {
	latRad := f.OriginLat * math.Pi / 180
	lon = f.OriginLon + (p.X/(earthRadiusM*math.Cos(latRad)))*180/math.Pi
	lat = f.OriginLat + (p.Y/earthRadiusM)*180/math.Pi
	return lat, lon
}

// ProjectPolyline projects a slice of control points into the local frame.
func ProjectPolyline(f domain.LocalFrame, points []domain.ControlPoint) []domain.Point {
	out := make([]domain.Point, len(points))
	for i, p := range points {
		out[i] = ProjectPoint(f, p.Lat, p.Lon)
	}
	return out
}

// WGS84Bearing returns the initial great-circle bearing in degrees from
// (lat1,lon1) to (lat2,lon2), using golang-geo the way the reference
// corpus's route tools do (other_examples searoute/main.go,
// spacetraders navigate_ship.go).
func WGS84Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := geolib.NewPoint(lat1, lon1)
	p2 := geolib.NewPoint(lat2, lon2)
	b := p1.BearingTo(p2)
	if b < 0 {
		b += 360
	}
	return b
}

// WGS84DistanceM returns the great-circle distance in meters between two
// WGS84 points.
func WGS84DistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := geolib.NewPoint(lat1, lon1)
	p2 := geolib.NewPoint(lat2, lon2)
	return p1.GreatCircleDistance(p2) * 1000
}

// BBoxOf returns the WGS84 bounding box of a polyline, expanded by a
// margin in meters (converted to degrees at the polyline's mean latitude)
// -- used before fetching land/bathymetry data for the corridor (§4.1 step 3).
func BBoxOf(points []domain.ControlPoint, marginM float64) (minLat, minLon, maxLat, maxLon float64) {
	minLat, minLon = math.MaxFloat64, math.MaxFloat64
	maxLat, maxLon = -math.MaxFloat64, -math.MaxFloat64
	var sumLat float64
	for _, p := range points {
		sumLat += p.Lat
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lon < minLon {
			minLon = p.Lon
		}
		if p.Lon > maxLon {
			maxLon = p.Lon
		}
	}
	meanLat := sumLat / float64(len(points))
	dLat := marginM / 111320.0
	dLon := marginM / (111320.0 * math.Cos(meanLat*math.Pi/180))
	return minLat - dLat, minLon - dLon, maxLat + dLat, maxLon + dLon
}

// toOrbRing converts a local-frame ring to an orb.Ring for use with the
// orb/simplify package.
func toOrbRing(ring []domain.Point) orb.Ring {
	r := make(orb.Ring, len(ring))
	for i, p := range ring {
		r[i] = orb.Point{p.X, p.Y}
	}
	return r
}

func fromOrbRing(r orb.Ring) []domain.Point {
	out := make([]domain.Point, len(r))
	for i, p := range r {
		out[i] = domain.Point{X: p[0], Y: p[1]}
	}
	return out
}

// SimplifyRing applies Douglas-Peucker simplification with the given
// tolerance (meters) to a ring in the local frame, the same way
// mmp-vice/misc/airspace.go simplifies coastline-shaped rings with
// orb/simplify before triangulation.
func SimplifyRing(ring []domain.Point, toleranceM float64) []domain.Point {
	if len(ring) < 4 || toleranceM <= 0 {
		return ring
	}
	simplifier := simplify.DouglasPeucker(toleranceM)
	simplified := simplifier.Simplify(orb.Geometry(toOrbRing(ring))).(orb.Ring)
	return fromOrbRing(simplified)
}

// RingArea returns the signed area of a ring (positive = counter-clockwise).
func RingArea(ring []domain.Point) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum / 2
}

// PolygonAreaM2 sums the outer-ring area minus hole areas.
func PolygonAreaM2(poly domain.Polygon) float64 {
	if len(poly.Rings) == 0 {
		return 0
	}
	area := math.Abs(RingArea(poly.Rings[0]))
	for _, hole := range poly.Rings[1:] {
		area -= math.Abs(RingArea(hole))
	}
	return area
}

// TriangleArea2 returns twice the signed area of a triangle (a,b,c).
func TriangleArea2(a, b, c domain.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}

// PointInRing is a standard ray-casting point-in-polygon test against a
// single ring (no holes).
func PointInRing(p domain.Point, ring []domain.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}
	return inside
}

// PointInPolygon tests against the outer ring while excluding holes.
func PointInPolygon(p domain.Point, poly domain.Polygon) bool {
	if len(poly.Rings) == 0 {
		return false
	}
	if !PointInRing(p, poly.Rings[0]) {
		return false
	}
	for _, hole := range poly.Rings[1:] {
		if PointInRing(p, hole) {
			return false
		}
	}
	return true
}

// NearestPointOnRing returns the closest point on a closed ring's
// boundary to p, and the distance.
func NearestPointOnRing(p domain.Point, ring []domain.Point) (domain.Point, float64) {
	best := ring[0]
	bestDist := math.MaxFloat64
	n := len(ring)
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]
		cand := nearestOnSegment(p, a, b)
		d := dist(p, cand)
		if d < bestDist {
			bestDist = d
			best = cand
		}
	}
	return best, bestDist
}

func nearestOnSegment(p, a, b domain.Point) domain.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return domain.Point{X: a.X + t*dx, Y: a.Y + t*dy}
}

func dist(a, b domain.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Dist exports the point distance helper for other packages.
func Dist(a, b domain.Point) float64 { return dist(a, b) }

// NearestPointOnPolyline projects p onto the polyline and returns the
// nearest point, the arc length from the polyline's start to that point,
// and the distance from p (used by the weather-point seed ETA, §4.8 Step 1,
// and the ETA-update step, §4.8 Step 6).
func NearestPointOnPolyline(p domain.Point, line []domain.Point) (nearest domain.Point, arcLength, distFromLine float64) {
	bestDist := math.MaxFloat64
	var bestArc float64
	var cumulative float64
	for i := 0; i+1 < len(line); i++ {
		a, b := line[i], line[i+1]
		cand := nearestOnSegment(p, a, b)
		d := dist(p, cand)
		segLen := dist(a, b)
		if d < bestDist {
			bestDist = d
			bestArc = cumulative + dist(a, cand)
			nearest = cand
		}
		cumulative += segLen
	}
	return nearest, bestArc, bestDist
}

// PolylineLength returns the total length of a polyline.
func PolylineLength(line []domain.Point) float64 {
	var total float64
	for i := 0; i+1 < len(line); i++ {
		total += dist(line[i], line[i+1])
	}
	return total
}

// NormalizeBearing wraps a bearing into [0, 360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Bearing returns the local-frame bearing (0=north, clockwise) from a to b.
func Bearing(a, b domain.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	deg := math.Atan2(dx, dy) * 180 / math.Pi
	return NormalizeBearing(deg)
}
