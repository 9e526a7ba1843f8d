package sync

import (
	"context"
	"testing"
	"time"

	"github.com/njoerd114/cratesync/internal/model"
)

// memorySink captures what the engine journals.
type memorySink struct {
	reports []Report
	errs    []error
}

func (s *memorySink) Record(_ context.Context, _, _ time.Time, rep Report, runErr error) error {
	s.reports = append(s.reports, rep)
	s.errs = append(s.errs, runErr)
	return nil
}

func TestRunOnce_ReloadsWantfileAndRecordsRun(t *testing.T) {
	coll := newMockCollection()
	coll.singlePage(model.ActualItem{ID: 9, InstanceID: 90})
	rec, _ := newReconcilerForTest(coll, newMockCatalog())

	desired := &mockDesired{items: []model.DesiredItem{{ID: 9}}}
	sink := &memorySink{}
	engine := NewEngine(rec, desired, sink, time.Hour, testLogger)

	rep, err := engine.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rep.Added != 0 || rep.Deleted != 0 {
		t.Errorf("report = %+v, want no-op for matching states", rep)
	}
	if len(sink.reports) != 1 {
		t.Fatalf("journalled runs = %d, want 1", len(sink.reports))
	}
	if sink.errs[0] != nil {
		t.Errorf("journalled run error = %v, want nil", sink.errs[0])
	}
}

func TestRunOnce_WantfileLoadFailureIsFatal(t *testing.T) {
	coll := newMockCollection()
	rec, _ := newReconcilerForTest(coll, newMockCatalog())

	desired := &mockDesired{err: context.DeadlineExceeded}
	sink := &memorySink{}
	engine := NewEngine(rec, desired, sink, time.Hour, testLogger)

	if _, err := engine.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(sink.reports) != 0 {
		t.Errorf("journalled runs = %d, want 0 when the wantfile cannot load", len(sink.reports))
	}
	if len(coll.calls) != 0 {
		t.Errorf("mutating calls = %v, want none", coll.calls)
	}
}
