// Command weathergen synthesizes a per-timestep marine forecast NetCDF
// file (wind, wave, and optionally current grids) for local testing of
// internal/adapter/weather without a live forecast feed: a lat/lon grid
// with a smooth synthetic spatial variation, written with the wind/wave/
// current variable names internal/adapter/weather.loadFieldSet expects.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
)

type grid struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
	Resolution     float64
}

func main() {
	outDir := flag.String("out", "./data/weather", "Output directory for the forecast NetCDF file")
	issuedAt := flag.String("at", "", "Forecast timestep instant, RFC3339 (default: now, rounded to the hour)")
	latMin := flag.Float64("lat-min", 53.5, "Minimum latitude")
	latMax := flag.Float64("lat-max", 55.0, "Maximum latitude")
	lonMin := flag.Float64("lon-min", 17.5, "Minimum longitude")
	lonMax := flag.Float64("lon-max", 19.5, "Maximum longitude")
	resolution := flag.Float64("resolution", 0.05, "Grid resolution in degrees")
	centerLat := flag.Float64("center-lat", 54.35, "Latitude of the synthetic low/high pressure center")
	centerLon := flag.Float64("center-lon", 18.65, "Longitude of the synthetic low/high pressure center")
	baseWindKt := flag.Float64("wind-kt", 14, "Wind speed at the center, knots")
	withCurrent := flag.Bool("with-current", false, "Also write a current_u/current_v field (omit to force the harmonic tidal current fallback)")
	flag.Parse()

	at := time.Now().UTC().Truncate(time.Hour)
	if *issuedAt != "" {
		parsed, err := time.Parse(time.RFC3339, *issuedAt)
		if err != nil {
			log.Fatalf("invalid -at: %v", err)
		}
		at = parsed.UTC()
	}

	g := grid{LatMin: *latMin, LatMax: *latMax, LonMin: *lonMin, LonMax: *lonMax, Resolution: *resolution}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	path := filepath.Join(*outDir, at.Format("20060102T1504Z")+".nc")
	if err := generate(path, g, *centerLat, *centerLon, *baseWindKt*0.514444, *withCurrent); err != nil {
		log.Fatalf("failed to generate %s: %v", path, err)
	}
	log.Printf("wrote synthetic forecast timestep %s -> %s", at.Format(time.RFC3339), path)
}

func generate(path string, g grid, centerLat, centerLon, baseWindMS float64, withCurrent bool) error {
	nLat := int((g.LatMax-g.LatMin)/g.Resolution) + 1
	nLon := int((g.LonMax-g.LonMin)/g.Resolution) + 1

	lat := make([]float64, nLat)
	for i := range lat {
		lat[i] = g.LatMin + float64(i)*g.Resolution
	}
	lon := make([]float64, nLon)
	for j := range lon {
		lon[j] = g.LonMin + float64(j)*g.Resolution
	}

	u := make([]float64, nLat*nLon)
	v := make([]float64, nLat*nLon)
	waveH := make([]float64, nLat*nLon)
	waveDir := make([]float64, nLat*nLon)
	wavePeriod := make([]float64, nLat*nLon)
	var curU, curV []float64
	if withCurrent {
		curU = make([]float64, nLat*nLon)
		curV = make([]float64, nLat*nLon)
	}

	for i := 0; i < nLat; i++ {
		for j := 0; j < nLon; j++ {
			idx := i*nLon + j
			latDist := lat[i] - centerLat
			lonDist := lon[j] - centerLon
			dist := math.Sqrt(latDist*latDist + lonDist*lonDist)

			// wind speed decays away from the synthetic pressure center,
			// direction circulates around it (a crude cyclonic gradient).
			decay := math.Max(0.4, math.Cos(dist*math.Pi/6.0))
			speed := baseWindMS * decay
			bearing := math.Atan2(lonDist, latDist) + math.Pi/2
			u[idx] = speed * math.Sin(bearing)
			v[idx] = speed * math.Cos(bearing)

			waveH[idx] = 0.3 + 0.05*speed
			waveDir[idx] = math.Mod(domainRad2Deg(bearing)+180, 360)
			wavePeriod[idx] = 4 + 0.2*speed

			if withCurrent {
				curU[idx] = 0.1 * math.Sin(lat[i]*math.Pi/10.0)
				curV[idx] = 0.1 * math.Cos(lon[j]*math.Pi/10.0)
			}
		}
	}

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() { _ = ds.Close() }()

	latDim, err := ds.AddDim("lat", uint64(nLat))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("lon", uint64(nLon))
	if err != nil {
		return err
	}

	write1D := func(name string, data []float64, dim netcdf.Dim) error {
		v, err := ds.AddVar(name, netcdf.DOUBLE, []netcdf.Dim{dim})
		if err != nil {
			return err
		}
		return v.WriteFloat64s(data)
	}
	write2D := func(name string, data []float64) error {
		v, err := ds.AddVar(name, netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})
		if err != nil {
			return err
		}
		return v.WriteFloat64s(data)
	}

	if err := write1D("lat", lat, latDim); err != nil {
		return err
	}
	if err := write1D("lon", lon, lonDim); err != nil {
		return err
	}
	for name, data := range map[string][]float64{
		"u10": u, "v10": v, "swh": waveH, "mwd": waveDir, "mwp": wavePeriod,
	} {
		if err := write2D(name, data); err != nil {
			return err
		}
	}
	if withCurrent {
		if err := write2D("current_u", curU); err != nil {
			return err
		}
		if err := write2D("current_v", curV); err != nil {
			return err
		}
	}
	return nil
}

func domainRad2Deg(rad float64) float64 {
	deg := rad * 180 / math.Pi
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
