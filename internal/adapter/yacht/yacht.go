// Package yacht loads yacht profiles from a data directory: one JSON
// sidecar per yacht for scalar particulars and an optional matching CSV
// polar table, using the same header-validated CSV row-loading idiom
// as internal/adapter/store/csv, retargeted to boat-speed tables (§4.7).
package yacht

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

// Repository loads yacht profiles from dataDir/<id>.json (scalar fields)
// plus an optional dataDir/<id>_polar.csv (boat-speed table).
type Repository struct {
	dataDir string
}

// NewRepository creates a yacht repository rooted at dataDir.
func NewRepository(dataDir string) *Repository {
	return &Repository{dataDir: dataDir}
}

// particulars mirrors the scalar fields of domain.Yacht as stored in the
// JSON sidecar; PolarTable is loaded separately from the CSV file.
type particulars struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	MaxSpeedMS float64 `json:"max_speed_ms"`
	MaxWindKt  float64 `json:"max_wind_kt"`
	LengthM    float64 `json:"length_m"`
	BeamM      float64 `json:"beam_m"`
	DraftM     float64 `json:"draft_m"`
	TackTimeS  float64 `json:"tack_time_s"`
	JibeTimeS  float64 `json:"jibe_time_s"`
	CrewSize   int     `json:"crew_size"`
}

// ByID satisfies ports.YachtRepository.
func (r *Repository) ByID(ctx context.Context, id string) (*domain.Yacht, error) {
	jsonPath := filepath.Join(r.dataDir, id+".json")
	//nolint:gosec // G304: path built from a configured data dir and a validated yacht id.
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read yacht profile %s: %w", id, err)
	}

	var p particulars
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse yacht profile %s: %w", id, err)
	}

	y := &domain.Yacht{
		ID:         p.ID,
		Name:       p.Name,
		MaxSpeedMS: p.MaxSpeedMS,
		MaxWindKt:  p.MaxWindKt,
		LengthM:    p.LengthM,
		BeamM:      p.BeamM,
		DraftM:     p.DraftM,
		TackTimeS:  p.TackTimeS,
		JibeTimeS:  p.JibeTimeS,
		CrewSize:   p.CrewSize,
	}
	if y.ID == "" {
		y.ID = id
	}

	polarPath := filepath.Join(r.dataDir, id+"_polar.csv")
	if _, err := os.Stat(polarPath); err == nil {
		table, err := loadPolarTable(polarPath)
		if err != nil {
			return nil, fmt.Errorf("load polar table for %s: %w", id, err)
		}
		y.PolarTable = table
	}

	return y, nil
}

// loadPolarTable reads a CSV polar table shaped as a header row of wind
// speeds ("twa_deg,6,10,14,20,...") followed by one row per TWA angle
// with boat speed in knots at each wind speed, converted to m/s.
func loadPolarTable(path string) (*domain.PolarTable, error) {
	//nolint:gosec // G304: path built from a configured data dir and a validated yacht id.
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 || strings.ToLower(strings.TrimSpace(header[0])) != "twa_deg" {
		return nil, fmt.Errorf("invalid polar header: expected first column twa_deg, got %v", header)
	}

	windSpeeds := make([]float64, len(header)-1)
	for i, h := range header[1:] {
		ws, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid wind speed column %q: %w", h, err)
		}
		windSpeeds[i] = ws
	}

	var twaAngles []float64
	var boatSpeeds [][]float64
	for {
		record, err := r.Read()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("row has %d columns, expected %d", len(record), len(header))
		}
		twa, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid twa_deg %q: %w", record[0], err)
		}
		row := make([]float64, len(windSpeeds))
		for i, v := range record[1:] {
			kt, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid boat speed %q at twa=%v: %w", v, twa, err)
			}
			row[i] = kt * 0.514444 // knots -> m/s
		}
		twaAngles = append(twaAngles, twa)
		boatSpeeds = append(boatSpeeds, row)
	}

	if len(twaAngles) == 0 {
		return nil, fmt.Errorf("polar table %s has no data rows", path)
	}

	return &domain.PolarTable{
		TWAAngles:  twaAngles,
		WindSpeeds: windSpeeds,
		BoatSpeeds: boatSpeeds,
	}, nil
}
