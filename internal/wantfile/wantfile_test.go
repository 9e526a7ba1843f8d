package wantfile

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeWantfile(t *testing.T, content string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "want.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing wantfile: %v", err)
	}
	return NewStore(path)
}

func TestLoad_ParsesEntriesWithAndWithoutArtistHints(t *testing.T) {
	s := writeWantfile(t, `
want:
  - id: 249504
    artist: Rick Astley
  - id: 1475024
`)
	set, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []int{249504, 1475024}; !reflect.DeepEqual(set.IDs(), want) {
		t.Errorf("IDs = %v, want %v", set.IDs(), want)
	}
	if got := set.Artist(249504); got != "Rick Astley" {
		t.Errorf("Artist(249504) = %q", got)
	}
	if got := set.Artist(1475024); got != "" {
		t.Errorf("Artist(1475024) = %q, want empty hint", got)
	}
}

func TestLoad_DuplicateIDsKeepTheFirstHint(t *testing.T) {
	s := writeWantfile(t, `
want:
  - id: 7
    artist: Brahms
  - id: 7
    artist: Beethoven
`)
	set, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("Len = %d, want 1", set.Len())
	}
	if got := set.Artist(7); got != "Brahms" {
		t.Errorf("Artist(7) = %q, want the first occurrence", got)
	}
}

func TestLoad_RejectsInvalidReleaseID(t *testing.T) {
	for _, content := range []string{
		"want:\n  - id: 0\n",
		"want:\n  - id: -3\n",
		"want:\n  - artist: no id at all\n",
	} {
		s := writeWantfile(t, content)
		if _, err := s.Load(); err == nil {
			t.Errorf("expected error for %q, got nil", content)
		}
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	s := writeWantfile(t, "want:\n  - id: 7\n    artst: typo\n")
	if _, err := s.Load(); err == nil {
		t.Error("expected error for a misspelled key, got nil")
	}
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := s.Load(); err == nil {
		t.Error("expected error for a missing wantfile, got nil")
	}
}

func TestLoad_EmptyFileIsAnEmptySet(t *testing.T) {
	s := writeWantfile(t, "")
	set, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("Len = %d, want 0", set.Len())
	}
}

func TestAppend_SkipsExistingIDsAndSurvivesReload(t *testing.T) {
	s := writeWantfile(t, "want:\n  - id: 7\n")

	err := s.Append(
		Entry{ID: 7, Artist: "already there"},
		Entry{ID: 9, Artist: "Nine Inch Nails"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set, err := s.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if want := []int{7, 9}; !reflect.DeepEqual(set.IDs(), want) {
		t.Errorf("IDs = %v, want %v", set.IDs(), want)
	}
	if got := set.Artist(7); got != "" {
		t.Errorf("Artist(7) = %q, want the original empty hint kept", got)
	}
	if got := set.Artist(9); got != "Nine Inch Nails" {
		t.Errorf("Artist(9) = %q", got)
	}
}

func TestAppend_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new", "want.yaml")
	s := NewStore(path)

	if err := s.Append(Entry{ID: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set, err := s.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if set.Len() != 1 || !set.Has(3) {
		t.Errorf("set = %v, want just id 3", set.IDs())
	}
}

func TestAppend_RejectsInvalidID(t *testing.T) {
	s := writeWantfile(t, "want: []\n")
	if err := s.Append(Entry{ID: 0}); err == nil {
		t.Error("expected error for id 0, got nil")
	}
}

func TestAppend_NoNewEntriesLeavesFileUntouched(t *testing.T) {
	s := writeWantfile(t, "# hand-written comment\nwant:\n  - id: 7\n")

	if err := s.Append(Entry{ID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("reading wantfile: %v", err)
	}
	if !strings.Contains(string(data), "hand-written comment") {
		t.Error("a no-op append must not rewrite the file and drop comments")
	}
}
