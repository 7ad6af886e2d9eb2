// Package tidalcurrent estimates tidal current speed and set (direction)
// from harmonic constituents when no live current field is available,
// reusing the harmonic-tide machinery (internal/domain/tide.go, nodal.go)
// with the "tide height" constituent series reinterpreted as two
// current-velocity components (east, north) per station.
package tidalcurrent

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	constituentstore "github.com/kelvin-ux/sailing-regates-route-calculator/internal/adapter/store/csv"
	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

// station names a harmonic-constituent station's location, read from
// dataDir/stations.csv (station_id,lat,lon).
type station struct {
	ID       string
	Lat, Lon float64
}

// Estimator predicts tidal current speed/direction at a station nearest
// to the query point, by running the harmonic tide-height formula once
// for the eastward velocity component and once for the northward
// component.
type Estimator struct {
	uStore, vStore *constituentstore.ConstituentStore
	nodal          domain.NodalCorrection
	stations       []station
}

// NewEstimator creates a tidal current estimator reading
// dataDir/current_u/ and dataDir/current_v/ constituent CSVs (same
// mock_<station>_constituents.csv naming as csv.ConstituentStore) plus
// a dataDir/stations.csv station registry. An
// empty dataDir means CurrentAt always reports ok=false.
func NewEstimator(dataDir string) *Estimator {
	if dataDir == "" {
		return &Estimator{nodal: domain.NewAstronomicalNodalCorrection()}
	}
	e := &Estimator{
		uStore: constituentstore.NewConstituentStore(filepath.Join(dataDir, "current_u")),
		vStore: constituentstore.NewConstituentStore(filepath.Join(dataDir, "current_v")),
		nodal:  domain.NewAstronomicalNodalCorrection(),
	}
	e.stations, _ = loadStations(filepath.Join(dataDir, "stations.csv"))
	return e
}

// CurrentAt returns the estimated current speed (knots) and set
// (direction of travel, degrees true, 0=north) at (lat, lon) and time t,
// using the nearest registered station's constituents. ok is false when
// no station is registered or its constituent files are missing.
func (e *Estimator) CurrentAt(lat, lon float64, t time.Time) (speedKt, setDeg float64, ok bool) {
	if e.uStore == nil || len(e.stations) == 0 {
		return 0, 0, false
	}

	st, dok := e.nearestStation(lat, lon)
	if !dok {
		return 0, 0, false
	}

	uConsts, err := e.uStore.LoadForStation(st.ID)
	if err != nil {
		return 0, 0, false
	}
	vConsts, err := e.vStore.LoadForStation(st.ID)
	if err != nil {
		return 0, 0, false
	}

	epoch := time.Unix(0, 0).UTC()
	u := domain.CalculateTideHeight(t, domain.PredictionParams{
		Constituents:    uConsts,
		NodalCorrection: e.nodal,
		ReferenceTime:   epoch,
		PhaseConvention: domain.PhaseConvVu,
	})
	v := domain.CalculateTideHeight(t, domain.PredictionParams{
		Constituents:    vConsts,
		NodalCorrection: e.nodal,
		ReferenceTime:   epoch,
		PhaseConvention: domain.PhaseConvVu,
	})

	speedMS := math.Hypot(u, v)
	set := domain.Rad2Deg(math.Atan2(u, v))
	if set < 0 {
		set += 360
	}
	return speedMS * 1.943844, set, true
}

func (e *Estimator) nearestStation(lat, lon float64) (station, bool) {
	if len(e.stations) == 0 {
		return station{}, false
	}
	best := e.stations[0]
	bestDist := haversineKm(lat, lon, best.Lat, best.Lon)
	for _, s := range e.stations[1:] {
		if d := haversineKm(lat, lon, s.Lat, s.Lon); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, true
}

// loadStations reads a "station_id,lat,lon" CSV (no header) with a
// plain row-by-row strconv.ParseFloat parsing idiom.
func loadStations(path string) ([]station, error) {
	//nolint:gosec // G304: path built from a configured data dir.
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	var stations []station
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if len(record) != 3 {
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if errLat != nil || errLon != nil {
			continue
		}
		stations = append(stations, station{ID: strings.TrimSpace(record[0]), Lat: lat, Lon: lon})
	}
	return stations, nil
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const r = 6371.0
	toRad := func(x float64) float64 { return x * math.Pi / 180.0 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return r * c
}
