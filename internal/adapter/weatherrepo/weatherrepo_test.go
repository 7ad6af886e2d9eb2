package weatherrepo

import (
	"context"
	"testing"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

func TestSaveForecastThenAll(t *testing.T) {
	s := New()
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	obs := domain.WeatherObservation{WindSpeedKt: 12}
	if err := s.SaveForecast(context.Background(), 0, now, obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := s.All()
	if len(all) != 1 || all[0].WindSpeedKt != 12 {
		t.Errorf("unexpected entries: %+v", all)
	}
}

func TestSaveForecastOverwritesSamePointAndTime(t *testing.T) {
	s := New()
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	_ = s.SaveForecast(context.Background(), 0, now, domain.WeatherObservation{WindSpeedKt: 10})
	_ = s.SaveForecast(context.Background(), 0, now, domain.WeatherObservation{WindSpeedKt: 20})
	all := s.All()
	if len(all) != 1 || all[0].WindSpeedKt != 20 {
		t.Errorf("expected one overwritten entry with WindSpeedKt=20, got %+v", all)
	}
}
