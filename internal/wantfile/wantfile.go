// Package wantfile reads and appends to the YAML wantfile — the user-curated
// list of releases the collection folder should contain. The sync engine
// treats the loaded set as immutable ground truth and never writes it; only
// the barcode lookup tool and the first-run seed append entries.
package wantfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/njoerd114/cratesync/internal/model"
)

// Entry is one wantfile record.
type Entry struct {
	// ID is the Discogs release id.
	ID int `yaml:"id"`

	// Artist is the optional expected-artist validation hint.
	Artist string `yaml:"artist,omitempty"`
}

// document is the on-disk shape: a single "want" list.
type document struct {
	Want []Entry `yaml:"want"`
}

// Store reads and appends to one wantfile path.
type Store struct {
	path string
}

// NewStore creates a Store for the wantfile at path. The file is opened
// lazily on each operation.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the wantfile location.
func (s *Store) Path() string {
	return s.path
}

// Load parses the wantfile into a deduplicated [model.DesiredSet]. A missing
// file is a configuration error — the engine must not run against an absent
// wantfile, because an empty desired set deletes the whole folder.
func (s *Store) Load() (*model.DesiredSet, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	items := make([]model.DesiredItem, 0, len(doc.Want))
	for i, e := range doc.Want {
		if e.ID <= 0 {
			return nil, fmt.Errorf("wantfile %q: entry %d has invalid release id %d", s.path, i+1, e.ID)
		}
		items = append(items, model.DesiredItem{ID: e.ID, Artist: e.Artist})
	}
	return model.NewDesiredSet(items), nil
}

// Append adds entries to the wantfile, skipping ids that are already present,
// and writes the file back atomically (write temp file, then rename).
func (s *Store) Append(entries ...Entry) error {
	doc, err := s.read()
	if errors.Is(err, os.ErrNotExist) {
		doc = document{}
	} else if err != nil {
		return err
	}

	seen := make(map[int]bool, len(doc.Want))
	for _, e := range doc.Want {
		seen[e.ID] = true
	}

	added := 0
	for _, e := range entries {
		if e.ID <= 0 {
			return fmt.Errorf("cannot append invalid release id %d", e.ID)
		}
		if seen[e.ID] {
			continue
		}
		doc.Want = append(doc.Want, e)
		seen[e.ID] = true
		added++
	}
	if added == 0 {
		return nil
	}

	return s.write(doc)
}

func (s *Store) read() (document, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return document{}, fmt.Errorf("opening wantfile %q: %w", s.path, err)
	}
	defer f.Close()

	var doc document
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true) // reject unknown keys to catch typos early
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty wantfile is a valid (if dangerous) desired state;
			// the first-run seed guard handles it.
			return document{}, nil
		}
		return document{}, fmt.Errorf("parsing wantfile %q: %w", s.path, err)
	}
	return doc, nil
}

func (s *Store) write(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding wantfile: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating wantfile directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing wantfile: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing wantfile: %w", err)
	}
	return nil
}
