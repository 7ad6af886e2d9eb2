package bathymetry

import (
	"context"
	"testing"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/ports"
)

func TestFetchRasterWithoutFileReturnsDeepFlatRaster(t *testing.T) {
	s := NewLocalStore("")
	bbox := ports.BBox{MinLat: 54.0, MinLon: 18.0, MaxLat: 54.5, MaxLon: 18.5}
	raster, err := s.FetchRaster(context.Background(), bbox, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range raster.DepthM {
		for _, d := range row {
			if d <= 0 {
				t.Errorf("expected a positive (deep) default depth, got %v", d)
			}
		}
	}
}

func TestSubsetRangeCoversRequestedBounds(t *testing.T) {
	coords := []float64{10, 10.5, 11, 11.5, 12, 12.5, 13}
	start, end := subsetRange(coords, 10.8, 12.2)
	if coords[start] > 10.8 {
		t.Errorf("subset start %v should be <= 10.8", coords[start])
	}
	if coords[end-1] < 12.2 {
		t.Errorf("subset end %v should be >= 12.2", coords[end-1])
	}
}
