package sync

import "github.com/njoerd114/cratesync/internal/model"

// ComputeDiff returns the minimal change set between the desired and actual
// states: ids to add (wanted but absent) and ids to delete (present but
// unwanted). It is pure — empty inputs yield empty, never-nil slices, and
// the output order is ascending so repeated runs log identically.
func ComputeDiff(desired *model.DesiredSet, actual *model.ActualSet) model.Diff {
	diff := model.Diff{
		ToAdd:    []int{},
		ToDelete: []int{},
	}

	for _, id := range desired.IDs() {
		if !actual.Has(id) {
			diff.ToAdd = append(diff.ToAdd, id)
		}
	}
	for _, id := range actual.IDs() {
		if !desired.Has(id) {
			diff.ToDelete = append(diff.ToDelete, id)
		}
	}
	return diff
}
