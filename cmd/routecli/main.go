// Package main provides a one-shot CLI that plans a single route and
// prints its profile, for smoke-testing a data directory without
// standing up the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/bathymetry"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/land"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/routerepo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/weather"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/weatherrepo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/yacht"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/config"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routing"
)

func main() {
	pointsFlag := flag.String("points", "", "Comma-separated lat,lon pairs, e.g. \"54.3,18.5 54.4,18.7\"")
	yachtID := flag.String("yacht", "", "Yacht ID to look up under -yacht-dir")
	corridorNM := flag.Float64("corridor-nm", 3, "Corridor half-width in nautical miles")
	budget := flag.Int("weather-budget", 60, "Weather sample point budget")
	landDir := flag.String("land-dir", "./data/land", "Land polygon GeoJSON tile directory")
	bathyPath := flag.String("bathymetry-path", "./data/bathymetry.nc", "NetCDF depth grid path")
	weatherDir := flag.String("weather-dir", "./data/weather", "Per-timestep forecast NetCDF directory")
	currentsDir := flag.String("currents-dir", "./data/currents", "Harmonic tidal current constituent directory")
	yachtDir := flag.String("yacht-dir", "./data/yachts", "Yacht particulars/polar directory")
	flag.Parse()

	if *pointsFlag == "" || *yachtID == "" {
		fmt.Fprintln(os.Stderr, "usage: routecli -points \"lat,lon lat,lon ...\" -yacht ID [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	controls, err := parseControlPoints(*pointsFlag)
	if err != nil {
		log.Fatalf("invalid -points: %v", err)
	}

	deps := routing.Deps{
		Land:      land.NewLocalStore(*landDir),
		Bathy:     bathymetry.NewLocalStore(*bathyPath),
		Weather:   weather.NewStore(*weatherDir, *currentsDir),
		Yachts:    yacht.NewRepository(*yachtDir),
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}

	req := routing.Request{
		ControlPoints:       controls,
		YachtID:             *yachtID,
		CorridorNM:          *corridorNM,
		WeatherPointsBudget: budget,
	}

	resp, err := routing.Plan(context.Background(), deps, req, config.FromEnv())
	if err != nil {
		log.Fatalf("route planning failed: %v", err)
	}

	printSummary(resp)
}

func parseControlPoints(raw string) ([]domain.ControlPoint, error) {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return nil, fmt.Errorf("need at least two lat,lon pairs, got %d", len(fields))
	}
	out := make([]domain.ControlPoint, len(fields))
	for i, f := range fields {
		parts := strings.SplitN(f, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("pair %q is not in lat,lon form", f)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("pair %q: invalid latitude: %w", f, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("pair %q: invalid longitude: %w", f, err)
		}
		out[i] = domain.ControlPoint{Lat: lat, Lon: lon}
	}
	return out, nil
}

func printSummary(resp *routing.Response) {
	for i, v := range resp.Variants {
		marker := "  "
		if i == resp.BestVariantIndex {
			marker = "* "
		}
		fmt.Printf("%svariant %d  depart=%s  distance=%.1fnm  time=%.2fh  avg=%.1fkt  tacks=%d  jibes=%d  difficulty=%.1f  converged=%v (%d iters)\n",
			marker, i, v.DepartureTime.Format(time.RFC3339), v.TotalDistanceNM, v.TotalTimeHours,
			v.AverageSpeedKnots, v.TacksCount, v.JibesCount, v.DifficultyScore, v.Converged, v.Iterations)
	}
	fmt.Printf("weather: %d requests, %d cache hits, %d upstream calls\n",
		resp.WeatherStats.TotalRequests, resp.WeatherStats.CacheHits, resp.WeatherStats.APICalls)

	if os.Getenv("ROUTECLI_DUMP_JSON") != "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
	}
}
