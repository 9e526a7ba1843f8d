package discogs

import (
	"encoding/json"
	"fmt"

	"github.com/njoerd114/cratesync/internal/model"
)

// collectionRelease is the JSON shape of one entry in a collection folder
// listing. Only the ids matter to the sync engine.
type collectionRelease struct {
	ID         int   `json:"id"`
	InstanceID int64 `json:"instance_id"`
}

// releaseList decodes the "releases" field of a folder page. Some upstream
// proxies collapse a one-element array into a bare object, so the decoder
// accepts both shapes and normalises to a slice.
type releaseList []collectionRelease

func (l *releaseList) UnmarshalJSON(data []byte) error {
	var many []collectionRelease
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}

	var one collectionRelease
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("releases is neither an array nor an object: %w", err)
	}
	*l = releaseList{one}
	return nil
}

// collectionPage is one page of a paginated folder listing.
type collectionPage struct {
	Pagination struct {
		URLs struct {
			// Next is the absolute URL of the next page; empty on the last one.
			Next string `json:"next"`
		} `json:"urls"`
	} `json:"pagination"`
	Releases releaseList `json:"releases"`
}

func (p collectionPage) items() []model.ActualItem {
	items := make([]model.ActualItem, 0, len(p.Releases))
	for _, r := range p.Releases {
		items = append(items, model.ActualItem{ID: r.ID, InstanceID: r.InstanceID})
	}
	return items
}

// Release is a single catalog entry from GET /releases/{id}.
type Release struct {
	ID    int    `json:"id"`
	Title string `json:"title"`

	// ArtistsSort is the canonical artist display string used for
	// wantfile artist validation.
	ArtistsSort string `json:"artists_sort"`
}

// Folder is one collection folder from GET /users/{u}/collection/folders.
// Folder 0 ("All") is a read-only view and can never be a sync target.
type Folder struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type foldersResponse struct {
	Folders []Folder `json:"folders"`
}

// User is the profile returned by GET /users/{username}. Fetching it is the
// cheapest authenticated call, so it doubles as a credentials check.
type User struct {
	Username       string `json:"username"`
	NumCollection  int    `json:"num_collection"`
	CollectionPage string `json:"collection_folders_url"`
}

// SearchResult is one hit from GET /database/search. Title carries the
// combined "Artist - Title" display string.
type SearchResult struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Year    string `json:"year"`
	CatNo   string `json:"catno"`
	Country string `json:"country"`
	Format  []string `json:"format"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}
