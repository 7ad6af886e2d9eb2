// Package bathymetry loads depth grids from local (or GCS FUSE-mounted)
// GEBCO-shaped NetCDF files: a mutex-guarded lazy load, margin-padded
// subset read, and bilinear grid sampling behind §4.1's depth-raster
// port.
package bathymetry

import (
	"context"
	"fmt"
	"sync"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/interp"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
)

// LocalStore serves bathymetry rasters from a single GEBCO-shaped NetCDF
// file, caching the last-loaded subset and only reloading when the
// requested bbox escapes it.
type LocalStore struct {
	path string

	mu     sync.Mutex
	grid   *interp.Grid2D
	bounds *bounds
}

type bounds struct {
	minLat, maxLat, minLon, maxLon float64
}

func (b *bounds) contains(bb ports.BBox) bool {
	if b == nil {
		return false
	}
	return bb.MinLat >= b.minLat && bb.MaxLat <= b.maxLat &&
		bb.MinLon >= b.minLon && bb.MaxLon <= b.maxLon
}

// NewLocalStore creates a bathymetry adapter reading the given GEBCO
// NetCDF file. An empty path means every fetch returns an all-deep
// raster (used in tests and for offline requests with no bathymetry
// configured).
func NewLocalStore(path string) *LocalStore {
	return &LocalStore{path: path}
}

// FetchRaster satisfies ports.BathymetrySource: it returns a regular
// lat/lon depth raster covering bbox, resampled at resolutionDeg from the
// underlying NetCDF grid via bilinear interpolation.
func (s *LocalStore) FetchRaster(ctx context.Context, bbox ports.BBox, resolutionDeg float64) (*ports.DepthRaster, error) {
	if s.path == "" {
		return flatRaster(bbox, resolutionDeg, 1000), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bounds.contains(bbox) {
		if err := s.loadSubset(bbox); err != nil {
			return nil, err
		}
	}

	return resample(s.grid, bbox, resolutionDeg)
}

// loadSubset reads a margin-padded subset of the GEBCO grid around bbox
// (§4.1 "bathymetry fetch").
func (s *LocalStore) loadSubset(bbox ports.BBox) error {
	const marginDeg = 1.0
	nc, err := netcdf.OpenFile(s.path, netcdf.NOWRITE)
	if err != nil {
		return fmt.Errorf("open GEBCO file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	latData, err := readNamedVar(nc, []string{"lat", "latitude", "y"})
	if err != nil {
		return fmt.Errorf("read latitude: %w", err)
	}
	lonData, err := readNamedVar(nc, []string{"lon", "longitude", "x"})
	if err != nil {
		return fmt.Errorf("read longitude: %w", err)
	}

	latStart, latEnd := subsetRange(latData, bbox.MinLat-marginDeg, bbox.MaxLat+marginDeg)
	lonStart, lonEnd := subsetRange(lonData, bbox.MinLon-marginDeg, bbox.MaxLon+marginDeg)

	v, err := findVar(nc, []string{"elevation", "z", "depth"})
	if err != nil {
		return fmt.Errorf("elevation variable: %w", err)
	}
	values, err := readVarSubset2D(v, latStart, latEnd, lonStart, lonEnd)
	if err != nil {
		return fmt.Errorf("read elevation subset: %w", err)
	}

	// GEBCO elevation is negative below sea level; the raster convention
	// here is positive-down depth, so the sign is flipped once at ingest.
	for i := range values {
		for j := range values[i] {
			values[i][j] = -values[i][j]
		}
	}

	s.grid = &interp.Grid2D{X: lonData[lonStart:lonEnd], Y: latData[latStart:latEnd], Values: values}
	s.bounds = &bounds{
		minLat: latData[latStart], maxLat: latData[latEnd-1],
		minLon: lonData[lonStart], maxLon: lonData[lonEnd-1],
	}
	return nil
}

// resample samples grid on a regular resolutionDeg raster covering bbox.
func resample(grid *interp.Grid2D, bbox ports.BBox, resolutionDeg float64) (*ports.DepthRaster, error) {
	if resolutionDeg <= 0 {
		resolutionDeg = 0.05
	}
	var lats, lons []float64
	for lat := bbox.MinLat; lat <= bbox.MaxLat+1e-9; lat += resolutionDeg {
		lats = append(lats, lat)
	}
	for lon := bbox.MinLon; lon <= bbox.MaxLon+1e-9; lon += resolutionDeg {
		lons = append(lons, lon)
	}
	if len(lats) < 2 {
		lats = append(lats, bbox.MaxLat)
	}
	if len(lons) < 2 {
		lons = append(lons, bbox.MaxLon)
	}

	depth := make([][]float64, len(lats))
	for i, lat := range lats {
		depth[i] = make([]float64, len(lons))
		for j, lon := range lons {
			d, err := grid.InterpolateAt(lon, lat)
			if err != nil {
				d = 1000 // outside the loaded subset: assume deep water
			}
			depth[i][j] = d
		}
	}
	return &ports.DepthRaster{Lats: lats, Lons: lons, DepthM: depth}, nil
}

func flatRaster(bbox ports.BBox, resolutionDeg, depthM float64) *ports.DepthRaster {
	return &ports.DepthRaster{
		Lats:   []float64{bbox.MinLat, bbox.MaxLat},
		Lons:   []float64{bbox.MinLon, bbox.MaxLon},
		DepthM: [][]float64{{depthM, depthM}, {depthM, depthM}},
	}
}

func subsetRange(coords []float64, lo, hi float64) (start, end int) {
	start, end = 0, len(coords)
	for i, c := range coords {
		if c > lo {
			break
		}
		start = i
	}
	for i := len(coords) - 1; i >= 0; i-- {
		if coords[i] < hi {
			break
		}
		end = i + 1
	}
	if end <= start+1 {
		end = start + 2
	}
	if end > len(coords) {
		end = len(coords)
	}
	return start, end
}

func readNamedVar(nc netcdf.File, names []string) ([]float64, error) {
	v, err := findVar(nc, names)
	if err != nil {
		return nil, err
	}
	return readVar1D(v)
}

func findVar(nc netcdf.File, names []string) (netcdf.Var, error) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, nil
		}
	}
	return netcdf.Var{}, fmt.Errorf("none of %v found", names)
}

func readVar1D(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	n, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if err := v.ReadFloat64s(out); err != nil {
		return nil, err
	}
	return out, nil
}

func readVarSubset2D(v netcdf.Var, latStart, latEnd, lonStart, lonEnd int) ([][]float64, error) {
	nLat, nLon := latEnd-latStart, lonEnd-lonStart
	full := make([]float64, nLat*nLon)
	start := []uint64{uint64(latStart), uint64(lonStart)}
	count := []uint64{uint64(nLat), uint64(nLon)}
	if err := v.ReadFloat64Slice(full, start, count); err != nil {
		return nil, err
	}
	out := make([][]float64, nLat)
	for i := range out {
		out[i] = full[i*nLon : (i+1)*nLon]
	}
	return out, nil
}
