package sync

import (
	"context"
	"fmt"

	"github.com/njoerd114/cratesync/internal/discogs"
	"github.com/njoerd114/cratesync/internal/model"
	"github.com/njoerd114/cratesync/internal/wantfile"
)

// --- Mock collection source ---------------------------------------------------

// page is one canned listing page served by mockCollection.
type page struct {
	items []model.ActualItem
	next  string
}

type mockCollection struct {
	pages map[string]page // cursor → page; "" is the first page

	// Mutation log, in call order, e.g. "delete 5/50", "add 7".
	calls []string

	// Error injection.
	fetchErr   error
	failAdd    map[int]error
	failDelete map[int]error
}

func newMockCollection() *mockCollection {
	return &mockCollection{
		pages:      map[string]page{"": {}},
		failAdd:    make(map[int]error),
		failDelete: make(map[int]error),
	}
}

// singlePage fills the mock with one terminal page of items.
func (m *mockCollection) singlePage(items ...model.ActualItem) {
	m.pages[""] = page{items: items}
}

func (m *mockCollection) FetchPage(_ context.Context, _ int, cursor string) ([]model.ActualItem, string, error) {
	if m.fetchErr != nil {
		return nil, "", m.fetchErr
	}
	p, ok := m.pages[cursor]
	if !ok {
		return nil, "", fmt.Errorf("unknown cursor %q", cursor)
	}
	return p.items, p.next, nil
}

func (m *mockCollection) AddRelease(_ context.Context, _ int, releaseID int) error {
	if err := m.failAdd[releaseID]; err != nil {
		return err
	}
	m.calls = append(m.calls, fmt.Sprintf("add %d", releaseID))
	return nil
}

func (m *mockCollection) DeleteInstance(_ context.Context, _ int, releaseID int, instanceID int64) error {
	if err := m.failDelete[releaseID]; err != nil {
		return err
	}
	m.calls = append(m.calls, fmt.Sprintf("delete %d/%d", releaseID, instanceID))
	return nil
}

// --- Mock catalog source ------------------------------------------------------

type mockCatalog struct {
	releases map[int]discogs.Release
	fetches  int
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{releases: make(map[int]discogs.Release)}
}

func (m *mockCatalog) put(id int, artistsSort string) {
	m.releases[id] = discogs.Release{ID: id, ArtistsSort: artistsSort}
}

func (m *mockCatalog) Release(_ context.Context, id int) (discogs.Release, error) {
	m.fetches++
	rel, ok := m.releases[id]
	if !ok {
		return discogs.Release{}, fmt.Errorf("release %d not found", id)
	}
	return rel, nil
}

// --- Fake pacer ---------------------------------------------------------------

// fakePacer counts gate calls instead of sleeping, keeping tests off the
// wall clock.
type fakePacer struct {
	callGates int
	pageGates int
}

func (p *fakePacer) Call(context.Context) error {
	p.callGates++
	return nil
}

func (p *fakePacer) Page(context.Context) error {
	p.pageGates++
	return nil
}

// --- Mock wantfile store ------------------------------------------------------

type mockSeedStore struct {
	appended []wantfile.Entry
}

func (m *mockSeedStore) Append(entries ...wantfile.Entry) error {
	m.appended = append(m.appended, entries...)
	return nil
}

// --- Mock desired source ------------------------------------------------------

type mockDesired struct {
	items []model.DesiredItem
	err   error
}

func (m *mockDesired) Load() (*model.DesiredSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return model.NewDesiredSet(m.items), nil
}
