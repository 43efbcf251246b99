package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/snow-drift-etl/internal/domain"
	"github.com/couchcryptid/snow-drift-etl/internal/observability"
)

// Error kinds used as the transform_errors_total label.
const (
	KindParse       = "parse"
	KindValidation  = "validation"
	KindDataQuality = "data_quality"
	KindDomain      = "domain"
	KindEncode      = "encode"
	KindOther       = "other"
)

// DriftTransformer implements Transformer: it decodes the hourly series,
// resolves parameters against the service defaults, and runs the analyzer.
type DriftTransformer struct {
	defaults domain.Params
	analyzer Analyzer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates a DriftTransformer. The defaults are validated once
// here; per-request overrides are validated on every message.
func NewTransformer(defaults domain.Params, analyzer Analyzer, logger *slog.Logger, metrics *observability.Metrics) (*DriftTransformer, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &DriftTransformer{
		defaults: defaults,
		analyzer: analyzer,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

func (t *DriftTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.DriftReport, error) {
	req, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.DriftReport{}, err
	}

	p := req.Overrides.Resolve(t.defaults)
	if err := p.Validate(); err != nil {
		return domain.DriftReport{}, err
	}

	start := time.Now()
	analysis, err := t.analyzer.Analyze(ctx, req, p)
	if err != nil {
		return domain.DriftReport{}, err
	}
	t.record(req, analysis, time.Since(start))

	report := domain.NewDriftReport(req, p, analysis)
	t.logger.Debug("drift report built",
		"id", report.ID,
		"location", req.Location.Name,
		"hours", report.Hours,
		"seasons", len(report.Seasons),
		"months", len(report.Months),
		"missing_directions", req.MissingDirections,
	)
	return report, nil
}

// Build analyses a request body outside of Kafka, for the HTTP endpoint.
func (t *DriftTransformer) Build(ctx context.Context, payload []byte) (domain.DriftReport, error) {
	return t.Transform(ctx, domain.RawEvent{Value: payload})
}

func (t *DriftTransformer) record(req domain.AnalysisRequest, a domain.Analysis, elapsed time.Duration) {
	t.metrics.AnalysisDuration.Observe(elapsed.Seconds())
	t.metrics.ObservationsTotal.Add(float64(len(req.Observations)))
	t.metrics.PeriodsComputed.WithLabelValues("season").Add(float64(len(a.Seasons)))
	t.metrics.PeriodsComputed.WithLabelValues("month").Add(float64(len(a.Months)))
	for _, s := range a.Seasons {
		t.metrics.ControlRegimes.WithLabelValues("season", s.Result.Control.String()).Inc()
	}
	for _, m := range a.Months {
		t.metrics.ControlRegimes.WithLabelValues("month", m.Result.Control.String()).Inc()
	}
}

// ErrorKind classifies a transform error for metrics and HTTP status mapping.
func ErrorKind(err error) string {
	var (
		validation *domain.ValidationError
		quality    *domain.DataQualityError
		domainErr  *domain.DomainError
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return KindParse
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &quality):
		return KindDataQuality
	case errors.As(err, &domainErr):
		return KindDomain
	default:
		return KindOther
	}
}
