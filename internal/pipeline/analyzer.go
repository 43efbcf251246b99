package pipeline

import (
	"context"

	"github.com/couchcryptid/snow-drift-etl/internal/domain"
)

// Analyzer runs the transport model over a decoded request.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest, p domain.Params) (domain.Analysis, error)
}

// DriftAnalyzer builds a fresh aggregator per request so each message may
// carry its own parameters.
type DriftAnalyzer struct {
	workers int
}

// NewAnalyzer returns a DriftAnalyzer computing up to workers periods at once.
func NewAnalyzer(workers int) *DriftAnalyzer {
	return &DriftAnalyzer{workers: workers}
}

func (a *DriftAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest, p domain.Params) (domain.Analysis, error) {
	agg, err := domain.NewAggregator(p, a.workers)
	if err != nil {
		return domain.Analysis{}, err
	}
	return agg.Analyze(ctx, req.Observations)
}
