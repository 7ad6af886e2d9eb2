package weather

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
)

func writeForecastFile(t *testing.T, path string, lat, lon []float64, u, v, swh, mwd, mwp []float64) {
	t.Helper()
	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		t.Fatalf("create nc: %v", err)
	}
	defer func() { _ = f.Close() }()

	latDim, _ := f.AddDim("lat", uint64(len(lat)))
	lonDim, _ := f.AddDim("lon", uint64(len(lon)))
	vlat, _ := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	vlon, _ := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	vu, _ := f.AddVar("u10", netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})
	vv, _ := f.AddVar("v10", netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})
	vswh, _ := f.AddVar("swh", netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})
	vmwd, _ := f.AddVar("mwd", netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})
	vmwp, _ := f.AddVar("mwp", netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})

	if err := f.EndDef(); err != nil {
		t.Fatalf("enddef: %v", err)
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("write var: %v", err)
		}
	}
	must(vlat.WriteFloat64s(lat))
	must(vlon.WriteFloat64s(lon))
	must(vu.WriteFloat64s(u))
	must(vv.WriteFloat64s(v))
	must(vswh.WriteFloat64s(swh))
	must(vmwd.WriteFloat64s(mwd))
	must(vmwp.WriteFloat64s(mwp))
}

func TestFetchBatchWithoutDirReturnsDefaultObservation(t *testing.T) {
	s := NewStore("", "")
	out, err := s.FetchBatchAtTime(context.Background(), []ports.WeatherQuery{
		{Idx: 0, Lat: 54.3, Lon: 18.5, At: time.Now()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs, ok := out[0]
	if !ok || !obs.IsDefault {
		t.Fatalf("expected a default observation, got %+v (ok=%v)", obs, ok)
	}
}

func TestFetchBatchInterpolatesNearestTimestep(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	lat := []float64{54.0, 54.5, 55.0}
	lon := []float64{18.0, 18.5, 19.0}
	flat := func(v float64) []float64 {
		out := make([]float64, len(lat)*len(lon))
		for i := range out {
			out[i] = v
		}
		return out
	}
	// Steady 10 m/s wind blowing from the north (u=0, v=-10 => from north).
	writeForecastFile(t, filepath.Join(dir, ts.Format(timeLayout)+".nc"),
		lat, lon, flat(0), flat(-10), flat(1.5), flat(180), flat(6))

	s := NewStore(dir, "")
	out, err := s.FetchBatchAtTime(context.Background(), []ports.WeatherQuery{
		{Idx: 0, Lat: 54.3, Lon: 18.4, At: ts.Add(5 * time.Minute)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs, ok := out[0]
	if !ok {
		t.Fatal("expected an observation for idx 0")
	}
	if obs.IsDefault {
		t.Error("expected a real observation, not a fallback")
	}
	if obs.WindSpeedKt < 19 || obs.WindSpeedKt > 20 {
		t.Errorf("expected ~19.4kt (10m/s), got %v", obs.WindSpeedKt)
	}
	if obs.WaveHeightM != 1.5 {
		t.Errorf("expected wave height 1.5m, got %v", obs.WaveHeightM)
	}
}

func TestFetchBatchFallsBackWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	// No files written: listTimesteps succeeds but finds nothing.
	s := NewStore(dir, "")
	out, err := s.FetchBatchAtTime(context.Background(), []ports.WeatherQuery{
		{Idx: 0, Lat: 54.3, Lon: 18.5, At: time.Now()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out[0].IsDefault {
		t.Error("expected a default observation when no forecast files exist")
	}
}

func TestFetchBatchFallsBackToHarmonicCurrentWhenFieldMissing(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	lat := []float64{54.0, 54.5, 55.0}
	lon := []float64{18.0, 18.5, 19.0}
	flat := func(v float64) []float64 {
		out := make([]float64, len(lat)*len(lon))
		for i := range out {
			out[i] = v
		}
		return out
	}
	writeForecastFile(t, filepath.Join(dir, ts.Format(timeLayout)+".nc"),
		lat, lon, flat(5), flat(5), flat(0.5), flat(90), flat(5))

	currentsDir := t.TempDir()
	for _, sub := range []string{"current_u", "current_v"} {
		sd := filepath.Join(currentsDir, sub)
		if err := os.MkdirAll(sd, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", sub, err)
		}
		if err := os.WriteFile(filepath.Join(sd, "mock_gdansk_constituents.csv"), []byte("constituent,amplitude_m,phase_deg\nM2,0.3,0\n"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(currentsDir, "stations.csv"), []byte("gdansk,54.3,18.4\n"), 0o644); err != nil {
		t.Fatalf("write stations.csv: %v", err)
	}

	s := NewStore(dir, currentsDir)
	out, err := s.FetchBatchAtTime(context.Background(), []ports.WeatherQuery{
		{Idx: 0, Lat: 54.3, Lon: 18.4, At: ts},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].CurrentSpeedKt == 0 {
		t.Error("expected a non-zero harmonic current estimate near the registered station")
	}
}
