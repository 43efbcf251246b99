// Command validate re-analyses a request fixture and checks the transport
// model's invariants on the result: period partition, regime decisions,
// saturation bounds, sector sums, and the wind rose. With -report it also
// diffs the fresh analysis against a stored report fixture.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -request data/mock/finse_2019_2022.json \
//	  -report data/mock/finse_2019_2022_report.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/snow-drift-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// tolerance for comparing derived quantities, relative to magnitude.
const tolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	requestPath := flag.String("request", "", "path to a request fixture")
	reportPath := flag.String("report", "", "optional path to a report fixture to diff against")
	flag.Parse()

	if *requestPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*requestPath, *reportPath); code != 0 {
		os.Exit(code)
	}
}

func run(requestPath, reportPath string) int {
	// Set a fixed clock matching genmock for ID reproducibility.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Snow Drift Integrity Validation ===")
	fmt.Println()

	payload, err := os.ReadFile(requestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read request: %v\n", err)
		return 1
	}
	req, err := domain.ParseRawEvent(domain.RawEvent{Value: payload})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse request: %v\n", err)
		return 1
	}
	p := req.Overrides.Resolve(domain.DefaultParams())
	agg, err := domain.NewAggregator(p, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parameters: %v\n", err)
		return 1
	}
	analysis, err := agg.Analyze(context.Background(), req.Observations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: analyze: %v\n", err)
		return 1
	}
	report := domain.NewDriftReport(req, p, analysis)

	// ── Run validation phases ──
	phases := []*phase{
		validateSeries(req.Observations),
		validatePartition(report),
		validateTransport(report),
		validateWindRose(report),
	}
	if reportPath != "" {
		phases = append(phases, validateFixture(report, reportPath))
	}

	// ── Report results ──
	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", ph.name, status)
	}

	fmt.Println()
	fmt.Printf("Hours: %d, seasons: %d, months: %d, missing directions: %d\n",
		report.Hours, len(report.Seasons), len(report.Months), report.MissingDirections)
	printSeasons(report)

	// Print detailed errors.
	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateSeries(obs []domain.Observation) *phase {
	ph := &phase{name: "Phase 1: Hourly series"}
	if len(obs) == 0 {
		ph.errorf("series is empty")
		return ph
	}
	if err := domain.ValidateObservations(obs); err != nil {
		ph.errorf("%v", err)
	}
	gaps := 0
	for i := 1; i < len(obs); i++ {
		step := obs[i].Time.Sub(obs[i-1].Time)
		switch {
		case step <= 0:
			ph.errorf("hour %d (%s) does not follow %s", i, obs[i].Time.Format(time.RFC3339), obs[i-1].Time.Format(time.RFC3339))
		case step > time.Hour:
			gaps++
		}
	}
	if gaps > 0 {
		fmt.Printf("  note: %d gaps in the hourly series\n", gaps)
	}
	return ph
}

func validatePartition(r domain.DriftReport) *phase {
	ph := &phase{name: "Phase 2: Season and month partition"}

	total := 0
	for i, s := range r.Seasons {
		total += s.Hours
		if s.Hours == 0 {
			ph.errorf("season %s is empty but was reported", s.Label)
		}
		if i > 0 && !r.Seasons[i-1].End.Before(s.Start) {
			ph.errorf("season %s overlaps or precedes %s", s.Label, r.Seasons[i-1].Label)
		}
		if s.Start.Month() != time.July || s.Start.Day() != 1 {
			ph.errorf("season %s starts %s, not July 1", s.Label, s.Start.Format(time.DateOnly))
		}
	}
	if total != r.Hours {
		ph.errorf("season hours sum to %d, report has %d", total, r.Hours)
	}

	monthHours := map[string]int{}
	for i, m := range r.Months {
		monthHours[m.Season] += m.Hours
		if i > 0 && !r.Months[i-1].Start.Before(m.Start) {
			ph.errorf("month %s is out of order after %s", m.Label, r.Months[i-1].Label)
		}
	}
	for _, s := range r.Seasons {
		if monthHours[s.Label] != s.Hours {
			ph.errorf("months of %s sum to %d hours, season has %d", s.Label, monthHours[s.Label], s.Hours)
		}
	}
	return ph
}

func validateTransport(r domain.DriftReport) *phase {
	ph := &phase{name: "Phase 3: Transport invariants"}
	p := r.Params
	decay := domain.SaturationFactor(p.F, p.T)

	check := func(period domain.PeriodResult) {
		res := period.Result
		if !approx(res.Qspot, 0.5*p.T*period.Swe) {
			ph.errorf("%s: Qspot %g != 0.5*T*Swe %g", period.Label, res.Qspot, 0.5*p.T*period.Swe)
		}
		if !approx(res.Srwe, p.Theta*period.Swe) {
			ph.errorf("%s: Srwe %g != theta*Swe %g", period.Label, res.Srwe, p.Theta*period.Swe)
		}

		wantControl := domain.WindControlled
		wantQinf := res.Qupot
		if res.Qupot > res.Qspot {
			wantControl = domain.SnowfallControlled
			wantQinf = 0.5 * p.T * res.Srwe
		}
		if res.Control != wantControl {
			ph.errorf("%s: control %s, expected %s", period.Label, res.Control, wantControl)
		}
		if !approx(res.Qinf, wantQinf) {
			ph.errorf("%s: Qinf %g, expected %g", period.Label, res.Qinf, wantQinf)
		}
		if res.Qt < 0 || res.Qt > res.Qinf*(1+tolerance) {
			ph.errorf("%s: Qt %g outside [0, Qinf=%g]", period.Label, res.Qt, res.Qinf)
		}
		if !approx(res.Qt, res.Qinf*decay) {
			ph.errorf("%s: Qt %g != Qinf*(1-0.14^(F/T)) %g", period.Label, res.Qt, res.Qinf*decay)
		}

		sectorSum := period.Sectors.Sum()
		if sectorSum > res.Qupot*(1+tolerance)+tolerance {
			ph.errorf("%s: sector sum %g exceeds Qupot %g", period.Label, sectorSum, res.Qupot)
		}
		if r.MissingDirections == 0 && !approx(sectorSum, res.Qupot) {
			ph.errorf("%s: sector sum %g != Qupot %g", period.Label, sectorSum, res.Qupot)
		}
	}
	for _, s := range r.Seasons {
		check(s)
	}
	for _, m := range r.Months {
		check(m)
	}
	return ph
}

func validateWindRose(r domain.DriftReport) *phase {
	ph := &phase{name: "Phase 4: Wind rose"}
	if len(r.WindRose.Bins) != domain.SectorCount {
		ph.errorf("wind rose has %d bins, expected %d", len(r.WindRose.Bins), domain.SectorCount)
		return ph
	}
	if r.WindRose.Seasons != len(r.Seasons) {
		ph.errorf("wind rose averages %d seasons, report has %d", r.WindRose.Seasons, len(r.Seasons))
	}
	if len(r.Seasons) == 0 {
		return ph
	}

	qts := make([]float64, len(r.Seasons))
	for i, s := range r.Seasons {
		qts[i] = s.Result.Qt
	}
	if !approx(r.WindRose.MeanQt, stat.Mean(qts, nil)) {
		ph.errorf("mean Qt %g != mean of seasons %g", r.WindRose.MeanQt, stat.Mean(qts, nil))
	}

	column := make([]float64, len(r.Seasons))
	for b, bin := range r.WindRose.Bins {
		for i, s := range r.Seasons {
			column[i] = s.Sectors[b]
		}
		want := floats.Sum(column) / float64(len(column))
		if !approx(bin.Transport, want) {
			ph.errorf("bin %s: %g != season mean %g", bin.Label, bin.Transport, want)
		}
		if bin.Label != domain.CompassLabels[b] {
			ph.errorf("bin %d labelled %q, expected %q", b, bin.Label, domain.CompassLabels[b])
		}
	}
	return ph
}

func validateFixture(r domain.DriftReport, path string) *phase {
	ph := &phase{name: "Phase 5: Report fixture parity"}
	data, err := os.ReadFile(path)
	if err != nil {
		ph.errorf("read fixture: %v", err)
		return ph
	}
	var fixture domain.DriftReport
	if err := json.Unmarshal(data, &fixture); err != nil {
		ph.errorf("decode fixture: %v", err)
		return ph
	}
	if diff := cmp.Diff(fixture, r,
		cmpopts.IgnoreFields(domain.DriftReport{}, "ProcessedAt"),
		cmpopts.EquateApprox(tolerance, tolerance),
	); diff != "" {
		ph.errorf("fixture mismatch (-fixture +fresh):\n%s", diff)
	}
	return ph
}

// ── Helpers ──

func printSeasons(r domain.DriftReport) {
	fmt.Printf("\n%-10s %6s %8s %12s %12s %-20s %s\n", "season", "hours", "swe", "qupot", "qt", "control", "dominant")
	for _, s := range r.Seasons {
		fmt.Printf("%-10s %6d %8.1f %12.0f %12.0f %-20s %s\n",
			s.Label, s.Hours, s.Swe, s.Result.Qupot, s.Result.Qt, s.Result.Control,
			domain.CompassLabels[floats.MaxIdx(s.Sectors[:])])
	}
	fmt.Printf("Mean Qt: %.0f kg/m\n", r.WindRose.MeanQt)
}

func approx(got, want float64) bool {
	return math.Abs(got-want) <= tolerance*math.Max(1, math.Abs(want))
}
