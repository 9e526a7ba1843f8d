// Package model defines the value objects shared between the wantfile store,
// the Discogs adapter, and the sync engine. All of them are rebuilt from
// scratch on every reconciliation run; nothing in this package is persisted.
package model

import "sort"

// DesiredItem is one wantfile entry: a release the collection should contain.
type DesiredItem struct {
	// ID is the Discogs release (catalog) identifier.
	ID int

	// Artist is an optional validation hint. When set, an add is only issued
	// if the release's canonical artist string contains it.
	Artist string
}

// ActualItem is one release instance observed in the remote collection folder.
type ActualItem struct {
	// ID is the Discogs release (catalog) identifier.
	ID int

	// InstanceID addresses this specific holding within the folder. Deletes
	// require it; zero means the instance is unknown (a ghost record).
	InstanceID int64
}

// DesiredSet is the deduplicated target state loaded from the wantfile:
// a set of release ids plus the optional artist hint per id.
type DesiredSet struct {
	artists map[int]string
}

// NewDesiredSet builds a DesiredSet from wantfile entries. Duplicate ids are
// collapsed; the first occurrence of an id keeps its artist hint.
func NewDesiredSet(items []DesiredItem) *DesiredSet {
	s := &DesiredSet{artists: make(map[int]string, len(items))}
	for _, item := range items {
		if _, ok := s.artists[item.ID]; ok {
			continue
		}
		s.artists[item.ID] = item.Artist
	}
	return s
}

// Has reports whether id is part of the desired state.
func (s *DesiredSet) Has(id int) bool {
	_, ok := s.artists[id]
	return ok
}

// Artist returns the validation hint for id, or "" if none was annotated.
func (s *DesiredSet) Artist(id int) string {
	return s.artists[id]
}

// IDs returns all desired release ids in ascending order.
func (s *DesiredSet) IDs() []int {
	return sortedKeys(s.artists)
}

// Len returns the number of distinct desired release ids.
func (s *DesiredSet) Len() int {
	return len(s.artists)
}

// ActualSet is the observed remote state: a set of release ids plus the
// instance id recorded for each, built by paginating the collection folder.
type ActualSet struct {
	instances map[int]int64
}

// NewActualSet returns an empty ActualSet.
func NewActualSet() *ActualSet {
	return &ActualSet{instances: make(map[int]int64)}
}

// Insert upserts one observed release. The id is set-inserted idempotently;
// the instance id is recorded only on first occurrence — later duplicates of
// the same release id are ignored, not overwritten. A non-positive instance
// id inserts the release without a deletable instance (ghost record).
func (s *ActualSet) Insert(item ActualItem) {
	existing, ok := s.instances[item.ID]
	if ok && existing > 0 {
		return
	}
	if item.InstanceID > 0 {
		s.instances[item.ID] = item.InstanceID
		return
	}
	if !ok {
		s.instances[item.ID] = 0
	}
}

// Has reports whether id was observed in the remote folder.
func (s *ActualSet) Has(id int) bool {
	_, ok := s.instances[id]
	return ok
}

// Instance returns the recorded instance id for a release, and whether one is
// known. Ghost records return (0, false) while still being members of the set.
func (s *ActualSet) Instance(id int) (int64, bool) {
	inst, ok := s.instances[id]
	if !ok || inst <= 0 {
		return 0, false
	}
	return inst, true
}

// IDs returns all observed release ids in ascending order.
func (s *ActualSet) IDs() []int {
	return sortedKeys(s.instances)
}

// Len returns the number of distinct observed release ids.
func (s *ActualSet) Len() int {
	return len(s.instances)
}

// Diff is the minimal change set that turns the actual state into the desired
// state. Both slices are sorted ascending so runs are reproducible.
type Diff struct {
	// ToAdd holds release ids present in the wantfile but not in the folder.
	ToAdd []int

	// ToDelete holds release ids present in the folder but not in the wantfile.
	ToDelete []int
}

// Empty reports whether the diff requires no mutations.
func (d Diff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToDelete) == 0
}

func sortedKeys[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
