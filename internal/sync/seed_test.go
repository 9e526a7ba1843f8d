package sync

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/njoerd114/cratesync/internal/model"
)

func TestSeed_EmptyWantfileOffersSeedAndAppends(t *testing.T) {
	coll := newMockCollection()
	coll.singlePage(
		model.ActualItem{ID: 3, InstanceID: 30},
		model.ActualItem{ID: 1, InstanceID: 10},
	)
	store := &mockSeedStore{}
	var out bytes.Buffer

	seed := NewSeed(NewReader(coll, &fakePacer{}, testLogger), store, testLogger,
		strings.NewReader("y\n"), &out)

	seeded, err := seed.Run(context.Background(), 1, desiredSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seeded {
		t.Fatal("seeded = false, want true")
	}

	if len(store.appended) != 2 {
		t.Fatalf("appended %d entries, want 2", len(store.appended))
	}
	// Ascending id order for reproducible wantfiles.
	if store.appended[0].ID != 1 || store.appended[1].ID != 3 {
		t.Errorf("appended ids = %d, %d, want 1, 3", store.appended[0].ID, store.appended[1].ID)
	}
	if !strings.Contains(out.String(), "DELETE") {
		t.Error("summary must warn that syncing now would delete the collection")
	}
}

func TestSeed_DeclinedPromptLeavesWantfileAlone(t *testing.T) {
	coll := newMockCollection()
	coll.singlePage(model.ActualItem{ID: 3, InstanceID: 30})
	store := &mockSeedStore{}

	seed := NewSeed(NewReader(coll, &fakePacer{}, testLogger), store, testLogger,
		strings.NewReader("n\n"), &bytes.Buffer{})

	seeded, err := seed.Run(context.Background(), 1, desiredSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seeded {
		t.Error("seeded = true, want false after declined prompt")
	}
	if len(store.appended) != 0 {
		t.Errorf("appended = %v, want none", store.appended)
	}
}

func TestSeed_NonEmptyWantfileSkipsWithoutFetching(t *testing.T) {
	coll := newMockCollection()
	coll.singlePage(model.ActualItem{ID: 3, InstanceID: 30})
	pacer := &fakePacer{}
	store := &mockSeedStore{}

	seed := NewSeed(NewReader(coll, pacer, testLogger), store, testLogger,
		strings.NewReader(""), &bytes.Buffer{})

	seeded, err := seed.Run(context.Background(), 1, desiredSet(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seeded {
		t.Error("seeded = true, want false for a populated wantfile")
	}
	if pacer.pageGates != 0 {
		t.Errorf("page gates = %d, want 0 (no fetch when wantfile has entries)", pacer.pageGates)
	}
}

func TestSeed_EmptyFolderSkips(t *testing.T) {
	coll := newMockCollection() // serves one empty terminal page
	store := &mockSeedStore{}

	seed := NewSeed(NewReader(coll, &fakePacer{}, testLogger), store, testLogger,
		strings.NewReader("y\n"), &bytes.Buffer{})

	seeded, err := seed.Run(context.Background(), 1, desiredSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seeded {
		t.Error("seeded = true, want false when the folder is empty too")
	}
}
