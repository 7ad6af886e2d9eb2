package tidalcurrent

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const m2Constituent = "constituent,amplitude_m,phase_deg\nM2,0.5,0\n"

func writeStationFixtures(t *testing.T, dataDir string) {
	t.Helper()
	for _, sub := range []string{"current_u", "current_v"} {
		dir := filepath.Join(dataDir, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", sub, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "mock_gdansk_constituents.csv"), []byte(m2Constituent), 0o644); err != nil {
			t.Fatalf("write %s fixture: %v", sub, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dataDir, "stations.csv"), []byte("gdansk,54.35,18.65\n"), 0o644); err != nil {
		t.Fatalf("write stations.csv: %v", err)
	}
}

func TestNewEstimatorWithoutDirAlwaysMisses(t *testing.T) {
	e := NewEstimator("")
	_, _, ok := e.CurrentAt(54.3, 18.5, time.Now())
	if ok {
		t.Error("expected no estimate without a configured data directory")
	}
}

func TestCurrentAtUsesNearestStationConstituents(t *testing.T) {
	dir := t.TempDir()
	writeStationFixtures(t, dir)

	e := NewEstimator(dir)
	speedKt, setDeg, ok := e.CurrentAt(54.36, 18.64, time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatal("expected a current estimate near the registered station")
	}
	if speedKt < 0 {
		t.Errorf("expected a non-negative speed, got %v", speedKt)
	}
	if setDeg < 0 || setDeg >= 360 {
		t.Errorf("expected set direction in [0,360), got %v", setDeg)
	}
}

func TestCurrentAtFailsWhenNearestStationHasNoConstituentFiles(t *testing.T) {
	dir := t.TempDir()
	writeStationFixtures(t, dir)
	// Register a second station with no matching constituent CSVs.
	if err := os.WriteFile(filepath.Join(dir, "stations.csv"), []byte("gdansk,54.35,18.65\nghost,0,0\n"), 0o644); err != nil {
		t.Fatalf("update stations.csv: %v", err)
	}

	e := NewEstimator(dir)
	_, _, ok := e.CurrentAt(0, 0, time.Now())
	if ok {
		t.Fatal("expected ok=false when the nearest station has no constituent files")
	}
}
