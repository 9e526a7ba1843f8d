package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/njoerd114/cratesync/internal/model"
)

// Phase tracks where a run currently is. Only Fetching can abort the run;
// every later phase degrades to per-item skip-and-continue.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseDiffing
	PhaseDeleting
	PhaseAdding
	PhaseDone
	PhaseAborted
)

// String returns the phase label used in logs.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseDiffing:
		return "diffing"
	case PhaseDeleting:
		return "deleting"
	case PhaseAdding:
		return "adding"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// AnomalyKind classifies a non-fatal per-item condition.
type AnomalyKind int

const (
	// AnomalyGhost is a delete target with no known instance id. The engine
	// cannot address it and skips it.
	AnomalyGhost AnomalyKind = iota

	// AnomalyValidationMismatch is an add candidate whose catalog artist did
	// not contain the wantfile hint.
	AnomalyValidationMismatch

	// AnomalyValidationFetch is an add candidate whose catalog entry could
	// not be fetched for validation.
	AnomalyValidationFetch

	// AnomalyOperationFailed is an add or delete call that itself failed.
	AnomalyOperationFailed
)

// String returns the anomaly label used in logs and the run journal.
func (k AnomalyKind) String() string {
	switch k {
	case AnomalyGhost:
		return "ghost"
	case AnomalyValidationMismatch:
		return "validation_mismatch"
	case AnomalyValidationFetch:
		return "validation_fetch"
	case AnomalyOperationFailed:
		return "operation_failed"
	default:
		return "unknown"
	}
}

// Anomaly records one skipped or failed item.
type Anomaly struct {
	Kind      AnomalyKind
	ReleaseID int
	Detail    string
}

// Report aggregates the outcome of one run. It is the only mutable state the
// driver carries; desired set, actual set, and diff are immutable once built.
type Report struct {
	Added             int
	Deleted           int
	Ghosts            int
	ValidationSkipped int
	Failed            int

	Anomalies []Anomaly
}

func (r *Report) anomaly(kind AnomalyKind, id int, detail string) {
	r.Anomalies = append(r.Anomalies, Anomaly{Kind: kind, ReleaseID: id, Detail: detail})
}

// Reconciler drives one fetch → diff → delete → add cycle against a single
// collection folder. It is stateless between runs.
type Reconciler struct {
	reader    *Reader
	validator *Validator
	coll      CollectionSource
	pacer     Pacer
	folderID  int
	log       *slog.Logger

	phase Phase
}

// NewReconciler creates a Reconciler for the given folder.
func NewReconciler(reader *Reader, validator *Validator, coll CollectionSource, pacer Pacer, folderID int, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		reader:    reader,
		validator: validator,
		coll:      coll,
		pacer:     pacer,
		folderID:  folderID,
		log:       logger,
		phase:     PhaseIdle,
	}
}

// Phase returns the driver's current phase.
func (r *Reconciler) Phase() Phase {
	return r.phase
}

// Run executes one full reconciliation of the folder against desired.
// Deletes are attempted before any add so a re-added release never coexists
// with the instance it replaces. Identical desired and actual states produce
// an empty diff and zero mutating calls.
//
// Only a fetch failure returns an error (wrapping [ErrRemoteUnavailable]);
// all per-item conditions end up in the Report.
func (r *Reconciler) Run(ctx context.Context, desired *model.DesiredSet) (Report, error) {
	var rep Report

	r.phase = PhaseFetching
	actual, err := r.reader.FetchAll(ctx, r.folderID)
	if err != nil {
		r.phase = PhaseAborted
		return rep, fmt.Errorf("materialising actual state: %w", err)
	}

	r.phase = PhaseDiffing
	diff := ComputeDiff(desired, actual)
	r.log.Info("diff computed",
		"desired", desired.Len(),
		"actual", actual.Len(),
		"to_add", len(diff.ToAdd),
		"to_delete", len(diff.ToDelete),
	)

	r.phase = PhaseDeleting
	r.deleteAll(ctx, diff.ToDelete, actual, &rep)

	r.phase = PhaseAdding
	r.addAll(ctx, diff.ToAdd, desired, &rep)

	r.phase = PhaseDone
	r.log.Info("reconcile complete",
		"added", rep.Added,
		"deleted", rep.Deleted,
		"ghosts", rep.Ghosts,
		"validation_skipped", rep.ValidationSkipped,
		"failed", rep.Failed,
	)
	return rep, nil
}

// deleteAll removes every unwanted release instance, isolating per-item
// failures. Releases without a known instance id are ghost records: the
// delete endpoint needs the instance id, so they are reported and skipped.
func (r *Reconciler) deleteAll(ctx context.Context, ids []int, actual *model.ActualSet, rep *Report) {
	for _, id := range ids {
		instance, ok := actual.Instance(id)
		if !ok {
			r.log.Warn("ghost record, cannot delete without instance id", "release", id)
			rep.Ghosts++
			rep.anomaly(AnomalyGhost, id, "no instance id recorded for release")
			continue
		}

		if err := r.pacer.Call(ctx); err != nil {
			rep.Failed++
			rep.anomaly(AnomalyOperationFailed, id, err.Error())
			continue
		}
		if err := r.coll.DeleteInstance(ctx, r.folderID, id, instance); err != nil {
			r.log.Error("delete failed", "release", id, "instance", instance, "error", err)
			rep.Failed++
			rep.anomaly(AnomalyOperationFailed, id, err.Error())
			continue
		}

		r.log.Info("release deleted", "release", id, "instance", instance)
		rep.Deleted++
	}
}

// addAll adds every wanted release that passed validation, isolating
// per-item failures.
func (r *Reconciler) addAll(ctx context.Context, ids []int, desired *model.DesiredSet, rep *Report) {
	for _, id := range ids {
		verdict := r.validator.Validate(ctx, id, desired.Artist(id))
		switch verdict.Kind {
		case VerdictMismatch:
			r.log.Warn("validation mismatch, skipping add", "release", id, "detail", verdict.Detail)
			rep.ValidationSkipped++
			rep.anomaly(AnomalyValidationMismatch, id, verdict.Detail)
			continue
		case VerdictFetchFailed:
			r.log.Warn("validation fetch failed, skipping add", "release", id, "detail", verdict.Detail)
			rep.ValidationSkipped++
			rep.anomaly(AnomalyValidationFetch, id, verdict.Detail)
			continue
		}

		if err := r.pacer.Call(ctx); err != nil {
			rep.Failed++
			rep.anomaly(AnomalyOperationFailed, id, err.Error())
			continue
		}
		if err := r.coll.AddRelease(ctx, r.folderID, id); err != nil {
			r.log.Error("add failed", "release", id, "error", err)
			rep.Failed++
			rep.anomaly(AnomalyOperationFailed, id, err.Error())
			continue
		}

		r.log.Info("release added", "release", id)
		rep.Added++
	}
}
