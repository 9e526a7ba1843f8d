package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// VerdictKind classifies the outcome of an add-candidate validation.
type VerdictKind int

const (
	// VerdictPass allows the add.
	VerdictPass VerdictKind = iota

	// VerdictMismatch means the catalog entry's artist string does not
	// contain the wantfile hint.
	VerdictMismatch

	// VerdictFetchFailed means the catalog entry could not be fetched.
	// Treated as a failure, never as a pass — the conservative bias is
	// against adding the wrong release.
	VerdictFetchFailed
)

// String returns the verdict label used in logs and the run journal.
func (k VerdictKind) String() string {
	switch k {
	case VerdictPass:
		return "pass"
	case VerdictMismatch:
		return "mismatch"
	case VerdictFetchFailed:
		return "fetch_failed"
	default:
		return "unknown"
	}
}

// Verdict is the result of validating one add candidate.
type Verdict struct {
	Kind VerdictKind

	// Detail is a human-readable explanation for non-pass verdicts.
	Detail string
}

// Validator checks an add candidate's catalog metadata against the wantfile
// artist hint before the add is allowed.
type Validator struct {
	catalog CatalogSource
	pacer   Pacer
	log     *slog.Logger
}

// NewValidator creates a Validator backed by the given catalog source.
func NewValidator(catalog CatalogSource, pacer Pacer, logger *slog.Logger) *Validator {
	return &Validator{catalog: catalog, pacer: pacer, log: logger}
}

// Validate checks release id against the expected artist hint. A blank hint
// passes trivially without a remote call. Otherwise the catalog entry is
// fetched and the verdict is a case-sensitive substring test of its
// artists_sort string — deliberately loose, so "Beatles" accepts
// "The Beatles".
func (v *Validator) Validate(ctx context.Context, id int, expectedArtist string) Verdict {
	if strings.TrimSpace(expectedArtist) == "" {
		return Verdict{Kind: VerdictPass}
	}

	if err := v.pacer.Call(ctx); err != nil {
		return Verdict{Kind: VerdictFetchFailed, Detail: err.Error()}
	}

	rel, err := v.catalog.Release(ctx, id)
	if err != nil {
		v.log.Debug("validation fetch failed", "release", id, "error", err)
		return Verdict{Kind: VerdictFetchFailed, Detail: err.Error()}
	}

	if !strings.Contains(rel.ArtistsSort, expectedArtist) {
		return Verdict{
			Kind:   VerdictMismatch,
			Detail: fmt.Sprintf("expected artist %q, catalog has %q", expectedArtist, rel.ArtistsSort),
		}
	}
	return Verdict{Kind: VerdictPass}
}
