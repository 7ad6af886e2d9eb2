// Package weather serves time-varying wind/wave/current grids from local
// NetCDF forecast files, one file per issued timestep: a time-invariant
// grid cache generalized to a time-keyed one, since a forecast point
// needs the field at the moment the boat is expected to cross it.
package weather

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/interp"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/tidalcurrent"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
)

// timeLayout names forecast files by their issued instant, e.g.
// "20260701T1200Z.nc".
const timeLayout = "20060102T1504Z"

// fieldSet is every gridded field loaded from one forecast timestep file.
type fieldSet struct {
	windU, windV                   *interp.Grid2D
	waveHeight, waveDir, wavePeriod *interp.Grid2D
	currentU, currentV              *interp.Grid2D // optional
}

// Store serves marine weather observations from a directory of per-
// timestep NetCDF files, caching each loaded timestep in memory.
type Store struct {
	dir      string
	currents *tidalcurrent.Estimator // optional fallback when a file carries no current field

	mu        sync.RWMutex
	cache     map[time.Time]*fieldSet
	timesteps []time.Time // sorted ascending, populated on first use
	listed    bool
}

// NewStore creates a weather adapter reading forecast files under dir. An
// empty dir means every fetch returns a calm default observation (offline
// mode, used in tests). currentsDataDir configures the harmonic tidal
// current fallback (see internal/adapter/tidalcurrent); pass "" to skip
// it and assume zero current when a forecast file has no current field.
func NewStore(dir, currentsDataDir string) *Store {
	return &Store{
		dir:      dir,
		currents: tidalcurrent.NewEstimator(currentsDataDir),
		cache:    make(map[time.Time]*fieldSet),
	}
}

// FetchBatchAtTime satisfies ports.WeatherSource: it loads the forecast
// timestep nearest each query's requested instant and bilinearly
// interpolates every field at the query's location.
func (s *Store) FetchBatchAtTime(ctx context.Context, queries []ports.WeatherQuery) (map[int]domain.WeatherObservation, error) {
	out := make(map[int]domain.WeatherObservation, len(queries))
	if s.dir == "" {
		for _, q := range queries {
			out[q.Idx] = defaultObservation()
		}
		return out, nil
	}

	s.mu.Lock()
	if !s.listed {
		if err := s.listTimesteps(); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("list forecast timesteps: %w", err)
		}
		s.listed = true
	}
	s.mu.Unlock()

	// Group queries by nearest available timestep so each file is loaded
	// at most once per batch.
	byTimestep := make(map[time.Time][]ports.WeatherQuery)
	for _, q := range queries {
		ts, ok := s.nearestTimestep(q.At)
		if !ok {
			out[q.Idx] = defaultObservation()
			continue
		}
		byTimestep[ts] = append(byTimestep[ts], q)
	}

	for ts, members := range byTimestep {
		fs, err := s.loadTimestep(ts)
		if err != nil {
			for _, m := range members {
				out[m.Idx] = defaultObservation()
			}
			continue
		}
		for _, m := range members {
			out[m.Idx] = s.observationAt(fs, m.Lat, m.Lon, ts)
		}
	}
	return out, nil
}

// listTimesteps scans dir for *.nc files named by timeLayout.
func (s *Store) listTimesteps() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	var ts []time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".nc") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".nc")
		t, err := time.Parse(timeLayout, base)
		if err != nil {
			continue
		}
		ts = append(ts, t.UTC())
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	s.timesteps = ts
	return nil
}

// nearestTimestep returns the listed timestep closest to at.
func (s *Store) nearestTimestep(at time.Time) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.timesteps) == 0 {
		return time.Time{}, false
	}
	best := s.timesteps[0]
	bestDiff := at.Sub(best).Abs()
	for _, ts := range s.timesteps[1:] {
		if d := at.Sub(ts).Abs(); d < bestDiff {
			best, bestDiff = ts, d
		}
	}
	return best, true
}

// loadTimestep returns the cached fieldSet for ts, loading it from disk
// on first request.
func (s *Store) loadTimestep(ts time.Time) (*fieldSet, error) {
	s.mu.RLock()
	if fs, ok := s.cache[ts]; ok {
		s.mu.RUnlock()
		return fs, nil
	}
	s.mu.RUnlock()

	path := filepath.Join(s.dir, ts.Format(timeLayout)+".nc")
	fs, err := loadFieldSet(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[ts] = fs
	s.mu.Unlock()
	return fs, nil
}

func loadFieldSet(path string) (*fieldSet, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("open forecast file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	lat, err := readNamedVar1D(nc, []string{"lat", "latitude", "y"})
	if err != nil {
		return nil, fmt.Errorf("read latitude: %w", err)
	}
	lon, err := readNamedVar1D(nc, []string{"lon", "longitude", "x"})
	if err != nil {
		return nil, fmt.Errorf("read longitude: %w", err)
	}

	fs := &fieldSet{}
	required := []struct {
		names []string
		grid  **interp.Grid2D
	}{
		{[]string{"u10", "wind_u", "uwnd"}, &fs.windU},
		{[]string{"v10", "wind_v", "vwnd"}, &fs.windV},
		{[]string{"swh", "wave_height", "hs"}, &fs.waveHeight},
		{[]string{"mwd", "wave_dir", "wave_direction"}, &fs.waveDir},
		{[]string{"mwp", "wave_period", "tp"}, &fs.wavePeriod},
	}
	for _, r := range required {
		g, err := readNamedGrid2D(nc, lat, lon, r.names)
		if err != nil {
			return nil, fmt.Errorf("read %v: %w", r.names, err)
		}
		*r.grid = g
	}

	// Current components are optional: when the forecast file carries no
	// current field, observationAt falls back to the tidal current
	// estimator and assumes calm water (zero) only when that has no estimate.
	if g, err := readNamedGrid2D(nc, lat, lon, []string{"current_u", "ucur"}); err == nil {
		fs.currentU = g
	}
	if g, err := readNamedGrid2D(nc, lat, lon, []string{"current_v", "vcur"}); err == nil {
		fs.currentV = g
	}

	return fs, nil
}

func readNamedVar1D(nc netcdf.File, names []string) ([]float64, error) {
	v, err := findVar(nc, names)
	if err != nil {
		return nil, err
	}
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

func readNamedGrid2D(nc netcdf.File, lat, lon []float64, names []string) (*interp.Grid2D, error) {
	v, err := findVar(nc, names)
	if err != nil {
		return nil, err
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("expected 2D variable, got %dD", len(dims))
	}
	total := len(lat) * len(lon)
	flat := make([]float64, total)
	if err := v.ReadFloat64s(flat); err != nil {
		return nil, err
	}
	values := make([][]float64, len(lat))
	for i := range values {
		values[i] = flat[i*len(lon) : (i+1)*len(lon)]
	}
	grid := &interp.Grid2D{X: lon, Y: lat, Values: values}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	return grid, nil
}

func findVar(nc netcdf.File, names []string) (netcdf.Var, error) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, nil
		}
	}
	return netcdf.Var{}, fmt.Errorf("none of %v found", names)
}

// observationAt interpolates every field in fs at (lat, lon) and converts
// the wind u/v components into the meteorological speed/from-direction
// convention domain.WeatherObservation expects. When fs carries no
// current field, the harmonic tidal current estimator is consulted
// instead of assuming flat calm.
func (s *Store) observationAt(fs *fieldSet, lat, lon float64, at time.Time) domain.WeatherObservation {
	u, _ := fs.windU.InterpolateAt(lon, lat)
	v, _ := fs.windV.InterpolateAt(lon, lat)
	waveH, _ := fs.waveHeight.InterpolateAt(lon, lat)
	waveDir, _ := fs.waveDir.InterpolateAt(lon, lat)
	wavePeriod, _ := fs.wavePeriod.InterpolateAt(lon, lat)

	obs := domain.WeatherObservation{
		WindSpeedKt: msToKt(windSpeedMS(u, v)),
		WindDirDeg:  windDirFromUV(u, v),
		WaveHeightM: waveH,
		WaveDirDeg:  normalize360(waveDir),
		WavePeriodS: wavePeriod,
	}
	if fs.currentU != nil && fs.currentV != nil {
		cu, _ := fs.currentU.InterpolateAt(lon, lat)
		cv, _ := fs.currentV.InterpolateAt(lon, lat)
		obs.CurrentSpeedKt = msToKt(windSpeedMS(cu, cv))
		obs.CurrentDirDeg = windDirFromUV(cu, cv)
	} else if s.currents != nil {
		if speedKt, setDeg, ok := s.currents.CurrentAt(lat, lon, at); ok {
			obs.CurrentSpeedKt = speedKt
			obs.CurrentDirDeg = setDeg
		}
	}
	return obs
}

func windSpeedMS(u, v float64) float64 {
	return math.Hypot(u, v)
}

func msToKt(ms float64) float64 {
	return ms * 1.943844
}

// windDirFromUV converts eastward/northward components into the
// meteorological "from" bearing in degrees (0-360).
func windDirFromUV(u, v float64) float64 {
	deg := domain.Rad2Deg(math.Atan2(-u, -v))
	return normalize360(deg)
}

func normalize360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func defaultObservation() domain.WeatherObservation {
	return domain.WeatherObservation{
		WindSpeedKt: 10, WindDirDeg: 0,
		WaveHeightM: 0.3, WaveDirDeg: 0, WavePeriodS: 5,
		IsDefault: true,
	}
}
