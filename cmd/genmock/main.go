// Command genmock writes a deterministic synthetic hourly series in the
// Open-Meteo ERA5 shape, plus the drift report the pipeline produces for it.
// The fixtures feed local Kafka runs, the HTTP endpoint, and cmd/validate.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -name Finse -lat 60.6 -lon 7.5 \
//	  -start-year 2019 -end-year 2022 \
//	  -out data/mock/finse_2019_2022.json \
//	  -report-out data/mock/finse_2019_2022_report.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/snow-drift-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// climate shapes the synthetic weather.
type climate struct {
	meanTemp       float64 // annual mean, °C
	tempAmplitude  float64 // half the summer-winter swing, °C
	wetHourChance  float64
	meanPrecip     float64 // mm on a wet hour
	meanWind       float64 // m/s
	prevailing     float64 // degrees
	missingDirRate float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	name := flag.String("name", "Synthetic station", "location name")
	lat := flag.Float64("lat", 60.6, "latitude")
	lon := flag.Float64("lon", 7.5, "longitude")
	startYear := flag.Int("start-year", 2019, "first calendar year")
	endYear := flag.Int("end-year", 2022, "last calendar year")
	seed := flag.Uint64("seed", 42, "random seed")
	prevailing := flag.Float64("prevailing", 250, "prevailing wind direction in degrees")
	missingDir := flag.Float64("missing-dir-rate", 0.001, "share of hours with a null wind direction")
	out := flag.String("out", "", "output path for the request fixture")
	reportOut := flag.String("report-out", "", "optional output path for the report fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *startYear > *endYear {
		return fmt.Errorf("start year %d is after end year %d", *startYear, *endYear)
	}

	c := climate{
		meanTemp:       0.5,
		tempAmplitude:  9,
		wetHourChance:  0.12,
		meanPrecip:     0.6,
		meanWind:       6.5,
		prevailing:     *prevailing,
		missingDirRate: *missingDir,
	}
	req := domain.RawRequest{
		Location:  domain.Location{Name: *name, Lat: *lat, Lon: *lon},
		StartYear: *startYear,
		EndYear:   *endYear,
		Hourly:    generate(c, *startYear, *endYear, rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))),
	}
	if err := writeJSON(*out, req); err != nil {
		return fmt.Errorf("writing request fixture: %w", err)
	}
	log.Printf("wrote request fixture: %s (%d hours)", *out, len(req.Hourly.Time))

	if *reportOut == "" {
		return nil
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	report, err := buildReport(req)
	if err != nil {
		return err
	}
	if err := writeJSON(*reportOut, report); err != nil {
		return fmt.Errorf("writing report fixture: %w", err)
	}
	log.Printf("wrote report fixture: %s", *reportOut)

	printSeasons(report)
	return nil
}

// generate produces hourly columns from Jan 1 of startYear to Dec 31 of
// endYear. Temperature follows an annual cosine with its minimum in mid
// January; wind direction scatters around the prevailing bearing.
func generate(c climate, startYear, endYear int, rng *rand.Rand) domain.HourlyColumns {
	from := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(endYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	hours := int(to.Sub(from) / time.Hour)

	h := domain.HourlyColumns{
		Time:          make([]string, hours),
		Temperature:   make([]*float64, hours),
		Precipitation: make([]*float64, hours),
		WindSpeed:     make([]*float64, hours),
		WindDirection: make([]*float64, hours),
	}
	for i := range hours {
		ts := from.Add(time.Duration(i) * time.Hour)
		h.Time[i] = ts.Format("2006-01-02T15:04")

		phase := 2 * math.Pi * (float64(ts.YearDay()) - 15) / 365.25
		temp := c.meanTemp - c.tempAmplitude*math.Cos(phase) + 2*rng.NormFloat64()
		h.Temperature[i] = ptr(round1(temp))

		precip := 0.0
		if rng.Float64() < c.wetHourChance {
			precip = c.meanPrecip * rng.ExpFloat64()
		}
		h.Precipitation[i] = ptr(round1(precip))

		speed := math.Max(0, c.meanWind+3*rng.NormFloat64())
		h.WindSpeed[i] = ptr(round1(speed))

		if rng.Float64() >= c.missingDirRate {
			h.WindDirection[i] = ptr(math.Round(domain.NormalizeDirection(c.prevailing + 40*rng.NormFloat64())))
		}
	}
	return h
}

func buildReport(req domain.RawRequest) (domain.DriftReport, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.DriftReport{}, fmt.Errorf("marshal request: %w", err)
	}
	parsed, err := domain.ParseRawEvent(domain.RawEvent{Value: payload})
	if err != nil {
		return domain.DriftReport{}, fmt.Errorf("parse request: %w", err)
	}
	p := parsed.Overrides.Resolve(domain.DefaultParams())
	agg, err := domain.NewAggregator(p, 0)
	if err != nil {
		return domain.DriftReport{}, err
	}
	analysis, err := agg.Analyze(context.Background(), parsed.Observations)
	if err != nil {
		return domain.DriftReport{}, fmt.Errorf("analyze: %w", err)
	}
	return domain.NewDriftReport(parsed, p, analysis), nil
}

func printSeasons(r domain.DriftReport) {
	fmt.Println("\n=== Seasons ===")
	fmt.Printf("%-10s %6s %8s %12s %12s %-20s\n", "season", "hours", "swe", "qupot", "qt", "control")
	for _, s := range r.Seasons {
		fmt.Printf("%-10s %6d %8.1f %12.0f %12.0f %-20s\n",
			s.Label, s.Hours, s.Swe, s.Result.Qupot, s.Result.Qt, s.Result.Control)
	}
	fmt.Printf("Mean Qt over %d seasons: %.0f kg/m\n", r.WindRose.Seasons, r.WindRose.MeanQt)
	fmt.Printf("Missing directions: %d\n", r.MissingDirections)
}

func ptr(v float64) *float64 { return &v }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
