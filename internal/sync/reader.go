package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/njoerd114/cratesync/internal/model"
)

// ErrRemoteUnavailable marks a failed actual-state fetch. It is the only
// error that aborts a run: diffing against a partial remote snapshot could
// issue deletes for releases that merely sat on an unfetched page.
var ErrRemoteUnavailable = errors.New("remote collection unavailable")

// Reader materialises the actual state of one collection folder by walking
// its paginated listing.
type Reader struct {
	coll  CollectionSource
	pacer Pacer
	log   *slog.Logger
}

// NewReader creates a Reader over the given collection source.
func NewReader(coll CollectionSource, pacer Pacer, logger *slog.Logger) *Reader {
	return &Reader{coll: coll, pacer: pacer, log: logger}
}

// FetchAll pages through the folder listing until an empty page or an absent
// next cursor and returns the resulting [model.ActualSet]. Duplicate release
// ids keep their first-seen instance id. Any page failure wraps
// [ErrRemoteUnavailable].
func (r *Reader) FetchAll(ctx context.Context, folderID int) (*model.ActualSet, error) {
	set := model.NewActualSet()
	cursor := ""

	for page := 1; ; page++ {
		if err := r.pacer.Page(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		}

		items, next, err := r.coll.FetchPage(ctx, folderID, cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrRemoteUnavailable, page, err)
		}

		for _, item := range items {
			set.Insert(item)
		}

		r.log.Debug("collection page read", "page", page, "items", len(items), "total", set.Len())

		// Either termination condition ends the walk: the service omits the
		// next cursor on the last page, and some mirrors return one trailing
		// empty page instead.
		if len(items) == 0 || next == "" {
			return set, nil
		}
		cursor = next
	}
}
