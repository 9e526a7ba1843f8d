// Package sync implements the reconciliation engine for cratesync. One run
// fetches the full remote folder state, diffs it against the wantfile's
// desired set, then applies deletes followed by validated adds. The fetch is
// the only fatal stage; every later per-item condition is isolated, recorded
// in the run [Report], and never stops the remaining items.
//
// The package contains three layers:
//
//   - [Reader], [Validator], and [Reconciler] implement the run itself.
//   - [Engine] wraps a run with telemetry and the optional polling loop.
//   - [Seed] guards the empty-wantfile first run.
package sync

import (
	"context"
	"time"

	"github.com/njoerd114/cratesync/internal/discogs"
	"github.com/njoerd114/cratesync/internal/model"
)

// CollectionSource provides paginated reads and mutations of the remote
// collection folder. Implemented by [discogs.Client].
type CollectionSource interface {
	// FetchPage returns one listing page plus the next-page cursor
	// ("" on the last page). An empty cursor requests the first page.
	FetchPage(ctx context.Context, folderID int, cursor string) (items []model.ActualItem, next string, err error)

	AddRelease(ctx context.Context, folderID, releaseID int) error
	DeleteInstance(ctx context.Context, folderID, releaseID int, instanceID int64) error
}

// CatalogSource provides single-release lookups against the shared Discogs
// database. Implemented by [discogs.Client].
type CatalogSource interface {
	Release(ctx context.Context, id int) (discogs.Release, error)
}

// Pacer gates outbound calls to respect the remote rate limit.
// Implemented by [pace.Limiter].
type Pacer interface {
	// Call blocks until a mutating or validating call may be issued.
	Call(ctx context.Context) error

	// Page blocks until a pagination read may be issued.
	Page(ctx context.Context) error
}

// DesiredSource loads the desired set fresh for each run.
// Implemented by [wantfile.Store].
type DesiredSource interface {
	Load() (*model.DesiredSet, error)
}

// ReportSink records the outcome of one completed (or aborted) run.
// Implemented by [journal.Journal].
type ReportSink interface {
	Record(ctx context.Context, started, finished time.Time, rep Report, runErr error) error
}
