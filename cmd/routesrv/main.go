// Package main provides the sailing route calculator HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/bathymetry"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/land"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/routerepo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/weather"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/weatherrepo"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/yacht"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/config"
	httpHandler "github.com/kelvin-ux/sailing-regates-route-calculator/internal/http"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/routing"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("routesrv version %s\n", version)
		return
	}

	port := getEnv("PORT", "8080")
	landDir := getEnv("LAND_DIR", "./data/land")
	bathyPath := getEnv("BATHYMETRY_PATH", "./data/bathymetry.nc")
	weatherDir := getEnv("WEATHER_DIR", "./data/weather")
	currentsDir := getEnv("CURRENTS_DIR", "./data/currents")
	yachtDir := getEnv("YACHT_DIR", "./data/yachts")
	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "")

	log.Printf("Starting sailing route calculator server...")
	log.Printf("Port: %s", port)
	log.Printf("Land polygon directory: %s", landDir)
	log.Printf("Bathymetry path: %s", bathyPath)
	log.Printf("Weather forecast directory: %s", weatherDir)
	log.Printf("Yacht data directory: %s", yachtDir)

	deps := routing.Deps{
		Land:      land.NewLocalStore(landDir),
		Bathy:     bathymetry.NewLocalStore(bathyPath),
		Weather:   weather.NewStore(weatherDir, currentsDir),
		Yachts:    yacht.NewRepository(yachtDir),
		Routes:    routerepo.New(),
		Forecasts: weatherrepo.New(),
	}

	handler := httpHandler.NewHandler(deps, config.FromEnv())

	var origins []string
	if corsOrigins != "" {
		origins = strings.Split(corsOrigins, ",")
	}
	router := httpHandler.SetupRouter(handler, origins)

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Server listening on %s", addr)
	log.Printf("API endpoints:")
	log.Printf("  - POST /v1/routes")
	log.Printf("  - GET  /healthz")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func printUsage() {
	fmt.Printf("Sailing Route Calculator Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  routesrv [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  LAND_DIR                GeoJSON land polygon tile directory (default: ./data/land)")
	fmt.Println("  BATHYMETRY_PATH         NetCDF depth grid path (default: ./data/bathymetry.nc)")
	fmt.Println("  WEATHER_DIR             Per-timestep forecast NetCDF directory (default: ./data/weather)")
	fmt.Println("  CURRENTS_DIR            Harmonic tidal current constituent directory (default: ./data/currents)")
	fmt.Println("  YACHT_DIR               Yacht particulars/polar directory (default: ./data/yachts)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  REGIONAL_OVERRIDES_PATH JSON path for per-region dead-angle/comfort overrides")
	fmt.Println()
	fmt.Println("ENDPOINTS:")
	fmt.Println("  POST /v1/routes   Plan a route across one or more departure-time variants")
	fmt.Println("  GET  /healthz     Health check")
	fmt.Println()
}
