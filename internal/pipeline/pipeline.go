package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/snow-drift-etl/internal/domain"
	"github.com/couchcryptid/snow-drift-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer analyses one raw weather series into a drift report.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.DriftReport, error)
}

// BatchLoader publishes encoded drift reports to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, msgs []domain.ReportMessage) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEncoding selects the report encoding, domain.EncodingJSON by default.
func WithEncoding(encoding string) Option {
	return func(p *Pipeline) { p.encoding = encoding }
}

// WithClock replaces the clock used for retry waits and batch timing.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// Pipeline drives the extract, analyse, encode and publish cycle. A message
// that cannot be analysed or encoded is dropped on its own; a failure to
// extract or publish retries the cycle without committing anything.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	encoding    string
	clock       clockwork.Clock
	retry       *retryPolicy
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		encoding:    domain.EncodingJSON,
		clock:       clockwork.NewRealClock(),
		retry:       newRetryPolicy(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a report has been published.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published any reports yet")
	}
	return nil
}

// Run processes batches until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "encoding", p.encoding)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for ctx.Err() == nil {
		err := p.cycle(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		wait := p.retry.next()
		p.logger.Error("batch cycle failed", "error", err, "retry_in", wait)
		if !sleepClock(ctx, p.clock, wait) {
			break
		}
	}

	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// staged is one message of a batch after analysis and encoding. A non-empty
// kind marks a message that is dropped.
type staged struct {
	raw  domain.RawEvent
	msg  domain.ReportMessage
	kind string
	err  error
}

// cycle runs one batch. It returns an error only for failures that should be
// retried: the source or sink being unavailable.
func (p *Pipeline) cycle(ctx context.Context) error {
	start := p.clock.Now()

	raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("extract batch: %w", err)
	}
	if len(raws) == 0 {
		return nil
	}
	p.retry.reset()
	p.metrics.MessagesConsumed.Add(float64(len(raws)))
	p.metrics.BatchSize.Observe(float64(len(raws)))

	batch, err := p.stage(ctx, raws)
	if err != nil {
		// Cancelled mid-analysis: nothing is committed and the batch is redelivered.
		return err
	}

	out := make([]domain.ReportMessage, 0, len(batch))
	for _, s := range batch {
		if s.kind != "" {
			p.drop(s)
			continue
		}
		out = append(out, s.msg)
	}

	if len(out) > 0 {
		if err := p.loader.LoadBatch(ctx, out); err != nil {
			return fmt.Errorf("load %d reports: %w", len(out), err)
		}
		p.metrics.MessagesProduced.Add(float64(len(out)))
		p.metrics.BatchProcessingDuration.Observe(p.clock.Since(start).Seconds())
		p.ready.Store(true)
	}

	// Offsets are committed in source order once the batch is settled, so a
	// dropped message never commits past a report that has not been published.
	for _, s := range batch {
		p.commit(ctx, s.raw)
	}
	return nil
}

// stage analyses and encodes every message of the batch. Per-message failures
// are recorded on the staged entry; only cancellation aborts the batch.
func (p *Pipeline) stage(ctx context.Context, raws []domain.RawEvent) ([]staged, error) {
	batch := make([]staged, len(raws))
	for i, raw := range raws {
		batch[i].raw = raw

		report, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			batch[i].kind, batch[i].err = ErrorKind(err), err
			continue
		}

		msg, err := domain.NewReportMessage(report, p.encoding)
		if err != nil {
			batch[i].kind, batch[i].err = KindEncode, err
			continue
		}
		batch[i].msg = msg
	}
	return batch, nil
}

func (p *Pipeline) drop(s staged) {
	p.logger.Warn("dropping message",
		"error", s.err,
		"kind", s.kind,
		"topic", s.raw.Topic,
		"partition", s.raw.Partition,
		"offset", s.raw.Offset,
	)
	p.metrics.TransformErrors.WithLabelValues(s.kind).Inc()
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
