package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const (
	otelScope         = "cratesync/sync"
	spanReconcile     = "collection.reconcile"
	metricAdded       = "cratesync.sync.releases.added"
	metricDeleted     = "cratesync.sync.releases.deleted"
	metricGhosts      = "cratesync.sync.ghosts"
	metricValSkipped  = "cratesync.sync.validation_skipped"
	metricFailed      = "cratesync.sync.failures"
	metricRunsAborted = "cratesync.sync.runs_aborted"
)

// Engine wraps the [Reconciler] with per-run telemetry, run journalling, and
// the optional polling loop for daemon mode. The wantfile is reloaded before
// every pass so edits between passes take effect.
type Engine struct {
	rec          *Reconciler
	desired      DesiredSource
	sink         ReportSink // nil disables journalling
	pollInterval time.Duration
	log          *slog.Logger

	// OTel instruments — always non-nil (no-op when telemetry is disabled).
	tracer        trace.Tracer
	cntAdded      metric.Int64Counter
	cntDeleted    metric.Int64Counter
	cntGhosts     metric.Int64Counter
	cntValSkipped metric.Int64Counter
	cntFailed     metric.Int64Counter
	cntAborted    metric.Int64Counter
}

// NewEngine creates an Engine. sink may be nil to skip run journalling.
func NewEngine(rec *Reconciler, desired DesiredSource, sink ReportSink, pollInterval time.Duration, logger *slog.Logger) *Engine {
	meter := otel.Meter(otelScope)

	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error("creating OTel counter", "name", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &Engine{
		rec:          rec,
		desired:      desired,
		sink:         sink,
		pollInterval: pollInterval,
		log:          logger,

		tracer:        otel.Tracer(otelScope),
		cntAdded:      mustCounter(metricAdded, "Releases added to the collection folder"),
		cntDeleted:    mustCounter(metricDeleted, "Release instances deleted from the collection folder"),
		cntGhosts:     mustCounter(metricGhosts, "Delete targets skipped for lack of an instance id"),
		cntValSkipped: mustCounter(metricValSkipped, "Adds skipped by artist validation"),
		cntFailed:     mustCounter(metricFailed, "Add or delete calls that failed"),
		cntAborted:    mustCounter(metricRunsAborted, "Runs aborted at the fetch stage"),
	}
}

// RunOnce loads the wantfile, performs a single reconciliation pass, records
// the outcome, and returns the report.
func (e *Engine) RunOnce(ctx context.Context) (Report, error) {
	ctx, span := e.tracer.Start(ctx, spanReconcile)
	defer span.End()

	started := time.Now().UTC()

	desired, err := e.desired.Load()
	if err != nil {
		span.RecordError(err)
		return Report{}, fmt.Errorf("loading wantfile: %w", err)
	}
	span.SetAttributes(attribute.Int("sync.desired", desired.Len()))

	rep, runErr := e.rec.Run(ctx, desired)

	e.record(ctx, span, rep, runErr)

	if e.sink != nil {
		if err := e.sink.Record(ctx, started, time.Now().UTC(), rep, runErr); err != nil {
			// Journalling is best-effort history; never fail the run over it.
			e.log.Error("recording run in journal", "error", err)
		}
	}

	return rep, runErr
}

// Run starts the polling loop for daemon mode, running one pass immediately
// and then one per poll interval. It blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	if _, err := e.RunOnce(ctx); err != nil {
		e.log.Error("reconcile pass failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			e.log.Info("sync engine shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.RunOnce(ctx); err != nil {
				e.log.Error("reconcile pass failed", "error", err)
			}
		}
	}
}

// record emits the pass outcome on the span and counters.
func (e *Engine) record(ctx context.Context, span trace.Span, rep Report, runErr error) {
	if rep.Added > 0 {
		e.cntAdded.Add(ctx, int64(rep.Added))
	}
	if rep.Deleted > 0 {
		e.cntDeleted.Add(ctx, int64(rep.Deleted))
	}
	if rep.Ghosts > 0 {
		e.cntGhosts.Add(ctx, int64(rep.Ghosts))
	}
	if rep.ValidationSkipped > 0 {
		e.cntValSkipped.Add(ctx, int64(rep.ValidationSkipped))
	}
	if rep.Failed > 0 {
		e.cntFailed.Add(ctx, int64(rep.Failed))
	}

	span.SetAttributes(
		attribute.Int("sync.added", rep.Added),
		attribute.Int("sync.deleted", rep.Deleted),
		attribute.Int("sync.ghosts", rep.Ghosts),
		attribute.Int("sync.validation_skipped", rep.ValidationSkipped),
		attribute.Int("sync.failed", rep.Failed),
	)
	if runErr != nil {
		e.cntAborted.Add(ctx, 1)
		span.RecordError(runErr)
	}
}
