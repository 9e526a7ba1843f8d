package sync

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/njoerd114/cratesync/internal/model"
	"github.com/njoerd114/cratesync/internal/wantfile"
)

// SeedStore is the subset of [wantfile.Store] the seed guard needs.
type SeedStore interface {
	Append(entries ...wantfile.Entry) error
}

// Seed guards the first run against an empty wantfile. Syncing an empty
// desired set against a populated folder would delete the entire collection,
// which is almost never what a new user wants. Instead, Seed offers to copy
// the current folder contents into the wantfile so the first real sync
// starts from a clean no-op.
type Seed struct {
	reader *Reader
	store  SeedStore
	log    *slog.Logger
	in     io.Reader // confirmation prompt input (os.Stdin in production)
	out    io.Writer // summary output (os.Stdout in production)
}

// NewSeed creates a Seed guard. in and out control the confirmation prompt.
func NewSeed(reader *Reader, store SeedStore, logger *slog.Logger, in io.Reader, out io.Writer) *Seed {
	return &Seed{reader: reader, store: store, log: logger, in: in, out: out}
}

// Run checks whether seeding applies and, with user confirmation, appends
// every release currently in the folder to the wantfile. It returns true if
// the wantfile was seeded. A declined prompt is not an error — the caller
// proceeds with a normal sync, trusting the wantfile as ground truth.
func (s *Seed) Run(ctx context.Context, folderID int, desired *model.DesiredSet) (bool, error) {
	if desired.Len() > 0 {
		s.log.Debug("wantfile is not empty, skipping seed guard")
		return false, nil
	}

	actual, err := s.reader.FetchAll(ctx, folderID)
	if err != nil {
		return false, fmt.Errorf("fetching folder for seed check: %w", err)
	}
	if actual.Len() == 0 {
		s.log.Debug("folder is empty too, nothing to seed")
		return false, nil
	}

	ids := actual.IDs()

	fmt.Fprintf(s.out, "\nThe wantfile is empty but folder %d holds %d release(s).\n", folderID, len(ids))
	fmt.Fprintf(s.out, "Syncing now would DELETE all of them.\n\n")
	fmt.Fprintf(s.out, "Seed the wantfile from the current folder contents instead?\n")

	if !s.confirm() {
		s.log.Info("seed declined, wantfile stays empty")
		return false, nil
	}

	entries := make([]wantfile.Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, wantfile.Entry{ID: id})
	}
	if err := s.store.Append(entries...); err != nil {
		return false, fmt.Errorf("seeding wantfile: %w", err)
	}

	fmt.Fprintf(s.out, "✓ %d release(s) written to the wantfile.\n", len(entries))
	s.log.Info("wantfile seeded from folder", "folder", folderID, "releases", len(entries))
	return true, nil
}

// confirm reads a y/n response from the prompt input.
func (s *Seed) confirm() bool {
	fmt.Fprintf(s.out, "Seed wantfile? [y/N] ")
	scanner := bufio.NewScanner(s.in)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes"
	}
	return false
}
