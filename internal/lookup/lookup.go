// Package lookup implements the barcode lookup tool: it searches the Discogs
// database for a scanned barcode and appends the matching release to the
// wantfile, so the next sync pass adds it to the collection.
package lookup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/njoerd114/cratesync/internal/discogs"
	"github.com/njoerd114/cratesync/internal/wantfile"
)

// Searcher is the subset of [discogs.Client] the tool needs.
type Searcher interface {
	SearchBarcode(ctx context.Context, barcode string) ([]discogs.SearchResult, error)
}

// Appender is the subset of [wantfile.Store] the tool needs.
type Appender interface {
	Append(entries ...wantfile.Entry) error
}

// Pacer gates the search call; shared with the sync engine so lookups honour
// the same rate limit.
type Pacer interface {
	Call(ctx context.Context) error
}

// Tool resolves barcodes to releases and records them in the wantfile.
type Tool struct {
	search Searcher
	store  Appender
	pacer  Pacer
	log    *slog.Logger
	out    io.Writer
}

// NewTool creates a lookup Tool.
func NewTool(search Searcher, store Appender, pacer Pacer, logger *slog.Logger, out io.Writer) *Tool {
	return &Tool{search: search, store: store, pacer: pacer, log: logger, out: out}
}

// Run searches for barcode, prints the candidates, and appends the first hit
// to the wantfile with an artist hint derived from its display title. No hit
// is an error — the caller decides whether that warrants a non-zero exit.
func (t *Tool) Run(ctx context.Context, barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return fmt.Errorf("barcode must not be empty")
	}

	if err := t.pacer.Call(ctx); err != nil {
		return err
	}
	results, err := t.search.SearchBarcode(ctx, barcode)
	if err != nil {
		return fmt.Errorf("looking up barcode %q: %w", barcode, err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no release found for barcode %q", barcode)
	}

	fmt.Fprintf(t.out, "Found %d release(s) for barcode %s:\n", len(results), barcode)
	for i, r := range results {
		marker := " "
		if i == 0 {
			marker = "→"
		}
		fmt.Fprintf(t.out, "  %s [%d] %s (%s, %s)\n", marker, r.ID, r.Title, r.Year, strings.Join(r.Format, "/"))
	}

	pick := results[0]
	entry := wantfile.Entry{ID: pick.ID, Artist: artistHint(pick.Title)}
	if err := t.store.Append(entry); err != nil {
		return fmt.Errorf("appending release %d to wantfile: %w", pick.ID, err)
	}

	t.log.Info("barcode resolved", "barcode", barcode, "release", pick.ID, "title", pick.Title)
	fmt.Fprintf(t.out, "✓ Release %d added to the wantfile.\n", pick.ID)
	return nil
}

// artistHint extracts the artist part from the search result display title,
// which Discogs formats as "Artist - Title". An unparseable title yields no
// hint, so the add validates trivially.
func artistHint(title string) string {
	artist, _, ok := strings.Cut(title, " - ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(artist)
}
