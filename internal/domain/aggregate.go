package domain

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// PeriodResult is the transport computed for one season or month.
type PeriodResult struct {
	Label   string          `json:"period"`
	Season  string          `json:"season"`
	Month   time.Month      `json:"month,omitempty"` // zero for seasons
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Hours   int             `json:"hours"`
	Swe     float64         `json:"swe"`
	Sectors SectorTable     `json:"sectors"`
	Result  TransportResult `json:"result"`
}

// WindRose is the mean directional transport over all seasons of an analysis.
type WindRose struct {
	Sectors SectorTable `json:"sectors"`
	MeanQt  float64     `json:"mean_qt"`
	Seasons int         `json:"seasons"`
}

// RoseBin is one labelled sector of a wind rose.
type RoseBin struct {
	Label     string  `json:"label"`
	Bearing   float64 `json:"bearing"`
	Transport float64 `json:"transport"`
}

// Bins pairs each sector value with its compass label and center bearing.
func (w WindRose) Bins() []RoseBin {
	bins := make([]RoseBin, SectorCount)
	for i := range bins {
		bins[i] = RoseBin{Label: CompassLabels[i], Bearing: SectorCenter(i), Transport: w.Sectors[i]}
	}
	return bins
}

// Analysis is the full result for one observation series.
type Analysis struct {
	Seasons  []PeriodResult `json:"seasons"`
	Months   []PeriodResult `json:"months"`
	WindRose WindRose       `json:"wind_rose"`
}

// Aggregator partitions an hourly series into periods and runs the transport
// model on each. It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	params  Params
	workers int
}

// NewAggregator validates params and returns an Aggregator that computes at
// most workers periods concurrently. workers <= 0 uses GOMAXPROCS.
func NewAggregator(params Params, workers int) (*Aggregator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Aggregator{params: params, workers: workers}, nil
}

// Params returns the physical parameters the aggregator was built with.
func (a *Aggregator) Params() Params {
	return a.params
}

type periodJob struct {
	label  string
	season Season
	month  time.Month
	start  time.Time
	end    time.Time
	obs    []Observation
}

// Analyze computes one result per non-empty season and month, plus the wind
// rose averaged over seasons. Results are ordered chronologically and do not
// depend on the worker count.
func (a *Aggregator) Analyze(ctx context.Context, obs []Observation) (Analysis, error) {
	if err := ValidateObservations(obs); err != nil {
		return Analysis{}, err
	}

	seasons := PartitionSeasons(obs)
	months := PartitionMonths(obs)

	jobs := make([]periodJob, 0, len(seasons)+len(months))
	for _, g := range seasons {
		jobs = append(jobs, periodJob{
			label: g.Season.Label(), season: g.Season,
			start: g.Season.Start(), end: g.Season.End(), obs: g.Observations,
		})
	}
	for _, g := range months {
		jobs = append(jobs, periodJob{
			label: g.Period.Label(), season: g.Period.Season, month: g.Period.Month,
			start: g.Period.Start(), end: g.Period.End(), obs: g.Observations,
		})
	}

	results := make([]PeriodResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.computePeriod(jobs[i])
			if err != nil {
				return fmt.Errorf("period %s: %w", jobs[i].label, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Analysis{}, err
	}

	out := Analysis{
		Seasons: results[:len(seasons):len(seasons)],
		Months:  results[len(seasons):],
	}
	out.WindRose = averageSeasons(out.Seasons)
	if !isFinite(out.WindRose.MeanQt) || !isFinite(out.WindRose.Sectors.Sum()) {
		return Analysis{}, &DomainError{Op: "average seasons", Reason: "wind rose overflowed"}
	}
	return out, nil
}

func (a *Aggregator) computePeriod(job periodJob) (PeriodResult, error) {
	swe := SnowWaterEquivalent(job.obs)
	qupot, sectors := windTransport(job.obs)
	res, err := ComputeTransport(swe, qupot, a.params)
	if err != nil {
		return PeriodResult{}, err
	}
	return PeriodResult{
		Label:   job.label,
		Season:  job.season.Label(),
		Month:   job.month,
		Start:   job.start,
		End:     job.end,
		Hours:   len(job.obs),
		Swe:     swe,
		Sectors: sectors,
		Result:  res,
	}, nil
}

// averageSeasons takes the unweighted per-bin mean of season sector tables and
// the mean season Qt.
func averageSeasons(seasons []PeriodResult) WindRose {
	rose := WindRose{Seasons: len(seasons)}
	if len(seasons) == 0 {
		return rose
	}

	column := make([]float64, len(seasons))
	for bin := 0; bin < SectorCount; bin++ {
		for i := range seasons {
			column[i] = seasons[i].Sectors[bin]
		}
		rose.Sectors[bin] = stat.Mean(column, nil)
	}
	for i := range seasons {
		column[i] = seasons[i].Result.Qt
	}
	rose.MeanQt = stat.Mean(column, nil)
	return rose
}
