package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/couchcryptid/sterileloop/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

// Extractor fetches and decodes a complete dataset.
type Extractor interface {
	Extract(ctx context.Context) (domain.Dataset, error)
	Name() string
}

// Transformer turns a decoded dataset into a publishable snapshot.
type Transformer interface {
	Transform(ctx context.Context, ds domain.Dataset, source string) (domain.Snapshot, error)
}

// Loader publishes a snapshot to one sink.
type Loader interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
	Name() string
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRefreshInterval reloads the dataset on a fixed cadence. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.refresh = d }
}

// WithClock overrides the clock used for backoff and refresh timers.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline loads the dataset, builds a snapshot and publishes it to every sink.
// Each load runs as its own cancellable task. Starting a new load cancels the
// one in flight, and a superseded result is discarded without being published.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	refresh     time.Duration
	reload      chan struct{}
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		reload:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once any sink has accepted a snapshot, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no dataset has been published yet")
	}
	return nil
}

// Reload requests a fresh load. Requests made while one is already pending
// are coalesced. It never blocks.
func (p *Pipeline) Reload() {
	select {
	case p.reload <- struct{}{}:
	default:
	}
}

// loadResult is the outcome of one load task.
type loadResult struct {
	id      uint64
	snap    domain.Snapshot
	err     error
	elapsed time.Duration
}

// Run performs an initial load and then reloads on request and on the refresh
// interval. A failed load is retried with exponential backoff. Sinks that
// reject a snapshot are retried with the same snapshot until they accept it
// or a newer load replaces it. It returns when ctx is cancelled, after every
// load task has exited.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "source", p.extractor.Name(), "refresh", p.refresh)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var (
		wg       sync.WaitGroup
		current  uint64
		inFlight bool
	)
	cancel := context.CancelFunc(func() {})
	results := make(chan loadResult)
	defer func() {
		cancel()
		wg.Wait()
	}()

	start := func(reason string) {
		if inFlight {
			p.logger.Info("cancelling in-flight load", "load", current, "reason", reason)
		}
		cancel()
		current++
		inFlight = true

		var loadCtx context.Context
		loadCtx, cancel = context.WithCancel(ctx)
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			res := p.load(loadCtx, id)
			select {
			case results <- res:
			case <-ctx.Done():
			}
		}(current)
	}

	var tick <-chan time.Time
	if p.refresh > 0 {
		ticker := p.clock.NewTicker(p.refresh)
		defer ticker.Stop()
		tick = ticker.Chan()
	}

	backoff := initialBackoff
	var (
		retryAt <-chan time.Time
		pending loadResult // snapshot still owed to the sinks in unsent
		unsent  []Loader
	)
	schedule := func() {
		retryAt = p.clock.After(backoff)
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	// deliver publishes to sinks and keeps the ones that failed for a retry
	// of the same snapshot.
	deliver := func(res loadResult, sinks []Loader) {
		failed, err := p.publish(ctx, res.snap, sinks)
		unsent = failed
		if err == nil {
			backoff = initialBackoff
			return
		}
		if ctx.Err() != nil {
			return
		}
		pending = res
		p.logger.Warn("snapshot not delivered to every sink", "load", res.id, "error", err, "retry_in", backoff)
		schedule()
	}

	start("initial")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil

		case <-p.reload:
			retryAt, unsent = nil, nil
			start("reload requested")

		case <-tick:
			if inFlight {
				continue
			}
			retryAt, unsent = nil, nil
			start("refresh")

		case <-retryAt:
			retryAt = nil
			if len(unsent) > 0 {
				before := len(unsent)
				deliver(pending, unsent)
				if before == len(p.loaders) && len(unsent) < before {
					p.recordSuccess(pending)
				}
				continue
			}
			start("retry")

		case res := <-results:
			if res.id != current {
				p.metrics.DatasetLoads.WithLabelValues("superseded").Inc()
				p.logger.Debug("discarding superseded load", "load", res.id, "current", current)
				continue
			}
			inFlight = false
			if res.err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.metrics.DatasetLoads.WithLabelValues("error").Inc()
				p.logger.Error("dataset load failed", "load", res.id, "error", res.err, "retry_in", backoff)
				schedule()
				continue
			}
			deliver(res, p.loaders)
			if ctx.Err() != nil {
				return nil
			}
			if len(p.loaders) > 0 && len(unsent) == len(p.loaders) {
				p.metrics.DatasetLoads.WithLabelValues("error").Inc()
				p.logger.Error("no sink accepted the snapshot", "load", res.id)
				continue
			}
			p.recordSuccess(res)
		}
	}
}

// load runs one extract-transform cycle.
func (p *Pipeline) load(ctx context.Context, id uint64) loadResult {
	start := p.clock.Now()
	ds, err := p.extractor.Extract(ctx)
	if err != nil {
		return loadResult{id: id, err: fmt.Errorf("extract: %w", err)}
	}
	snap, err := p.transformer.Transform(ctx, ds, p.extractor.Name())
	if err != nil {
		return loadResult{id: id, err: fmt.Errorf("transform: %w", err)}
	}
	return loadResult{id: id, snap: snap, elapsed: p.clock.Since(start)}
}

// publish hands the snapshot to each sink. A failing sink does not stop the
// others; it returns the sinks that failed and their joined errors.
func (p *Pipeline) publish(ctx context.Context, snap domain.Snapshot, sinks []Loader) ([]Loader, error) {
	var (
		failed []Loader
		errs   []error
	)
	for _, l := range sinks {
		if err := l.Publish(ctx, snap); err != nil {
			p.metrics.PublishErrors.WithLabelValues(l.Name()).Inc()
			failed = append(failed, l)
			errs = append(errs, fmt.Errorf("publish to %s: %w", l.Name(), err))
		}
	}
	return failed, errors.Join(errs...)
}

func (p *Pipeline) recordSuccess(res loadResult) {
	ds := res.snap.Dataset
	p.metrics.DatasetLoads.WithLabelValues("success").Inc()
	p.metrics.DatasetLoadDuration.Observe(res.elapsed.Seconds())
	p.metrics.DatasetStates.Set(float64(len(ds.States)))
	p.metrics.DatasetRecords.Set(float64(ds.RecordCount()))
	p.metrics.DatasetYears.Set(float64(len(ds.Years)))
	p.metrics.LastLoadTimestamp.Set(float64(res.snap.LoadedAt.Unix()))
	p.ready.Store(true)
	p.logger.Info("dataset published",
		"load", res.id,
		"source", res.snap.Source,
		"states", len(ds.States),
		"records", ds.RecordCount(),
		"years", len(ds.Years),
		"anchored", len(res.snap.Centroids),
		"duration", res.elapsed,
	)
}
