// Package discogs is a thin typed client for the subset of the Discogs REST
// API that cratesync needs: collection folder listings, release lookups,
// collection mutations, and barcode search. It does no pacing or retrying of
// its own — the sync engine gates every call through a [pace.Limiter], and a
// failed page fetch is fatal to the run by design.
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/njoerd114/cratesync/internal/model"
)

// Config carries the connection settings for a [Client].
type Config struct {
	// BaseURL is the API root, e.g. "https://api.discogs.com".
	BaseURL string

	// Username scopes the collection endpoints.
	Username string

	// Token is a personal access token, sent as "Authorization: Discogs token=…".
	Token string

	// UserAgent identifies the client; Discogs rejects requests without one.
	UserAgent string

	// PerPage is the folder listing page size (1–100). Defaults to 100.
	PerPage int
}

// Client talks to one Discogs instance on behalf of one user.
type Client struct {
	hc        *http.Client
	baseURL   string
	username  string
	token     string
	userAgent string
	perPage   int
	log       *slog.Logger
}

// NewClient validates cfg and returns a ready Client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("base URL %q must be a valid http or https URL", cfg.BaseURL)
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "cratesync"
	}
	if cfg.PerPage <= 0 || cfg.PerPage > 100 {
		cfg.PerPage = 100
	}

	return &Client{
		hc:        &http.Client{Timeout: 30 * time.Second},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		username:  cfg.Username,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		perPage:   cfg.PerPage,
		log:       logger,
	}, nil
}

// FetchPage returns one page of the collection folder listing. An empty
// cursor fetches the first page; otherwise cursor is the pagination URL
// returned by the previous page. The second return value is the next cursor,
// empty on the last page.
func (c *Client) FetchPage(ctx context.Context, folderID int, cursor string) ([]model.ActualItem, string, error) {
	endpoint := cursor
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/users/%s/collection/folders/%d/releases?per_page=%d",
			c.baseURL, url.PathEscape(c.username), folderID, c.perPage)
	}

	var page collectionPage
	if err := c.do(ctx, http.MethodGet, endpoint, &page); err != nil {
		return nil, "", fmt.Errorf("fetching collection page: %w", err)
	}

	c.log.Debug("collection page fetched",
		"folder", folderID,
		"releases", len(page.Releases),
		"has_next", page.Pagination.URLs.Next != "",
	)
	return page.items(), page.Pagination.URLs.Next, nil
}

// Release fetches a single catalog entry by release id.
func (c *Client) Release(ctx context.Context, id int) (Release, error) {
	endpoint := fmt.Sprintf("%s/releases/%d", c.baseURL, id)

	var rel Release
	if err := c.do(ctx, http.MethodGet, endpoint, &rel); err != nil {
		return Release{}, fmt.Errorf("fetching release %d: %w", id, err)
	}
	return rel, nil
}

// AddRelease adds a release to the collection folder. The request body is
// empty; Discogs allocates the instance on the server side.
func (c *Client) AddRelease(ctx context.Context, folderID, releaseID int) error {
	endpoint := fmt.Sprintf("%s/users/%s/collection/folders/%d/releases/%d",
		c.baseURL, url.PathEscape(c.username), folderID, releaseID)

	if err := c.do(ctx, http.MethodPost, endpoint, nil); err != nil {
		return fmt.Errorf("adding release %d to folder %d: %w", releaseID, folderID, err)
	}
	return nil
}

// DeleteInstance removes one specific holding of a release from the folder.
// The instance id is mandatory — a release id alone cannot address a holding.
func (c *Client) DeleteInstance(ctx context.Context, folderID, releaseID int, instanceID int64) error {
	endpoint := fmt.Sprintf("%s/users/%s/collection/folders/%d/releases/%d/instances/%d",
		c.baseURL, url.PathEscape(c.username), folderID, releaseID, instanceID)

	if err := c.do(ctx, http.MethodDelete, endpoint, nil); err != nil {
		return fmt.Errorf("deleting release %d instance %d from folder %d: %w",
			releaseID, instanceID, folderID, err)
	}
	return nil
}

// User fetches the profile for the configured username. Used by the setup
// wizard as a credentials check.
func (c *Client) User(ctx context.Context) (User, error) {
	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(c.username))

	var u User
	if err := c.do(ctx, http.MethodGet, endpoint, &u); err != nil {
		return User{}, fmt.Errorf("fetching user %s: %w", c.username, err)
	}
	return u, nil
}

// Folders lists the user's collection folders, including the read-only
// folder 0.
func (c *Client) Folders(ctx context.Context) ([]Folder, error) {
	endpoint := fmt.Sprintf("%s/users/%s/collection/folders", c.baseURL, url.PathEscape(c.username))

	var resp foldersResponse
	if err := c.do(ctx, http.MethodGet, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetching collection folders: %w", err)
	}
	return resp.Folders, nil
}

// SearchBarcode queries the database search endpoint for releases matching
// a barcode.
func (c *Client) SearchBarcode(ctx context.Context, barcode string) ([]SearchResult, error) {
	endpoint := fmt.Sprintf("%s/database/search?barcode=%s", c.baseURL, url.QueryEscape(barcode))

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("searching barcode %q: %w", barcode, err)
	}
	return resp.Results, nil
}

// do executes one authenticated request and decodes the JSON response into
// out (which may be nil for calls whose body is irrelevant).
func (c *Client) do(ctx context.Context, method, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+c.token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("discogs returned 401 Unauthorized — check the token")
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("discogs returned 404 Not Found")
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("discogs returned 429 Too Many Requests — increase call_interval")
	case resp.StatusCode >= 300:
		return fmt.Errorf("discogs returned unexpected status %d: %s",
			resp.StatusCode, readErrorMessage(resp.Body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// readErrorMessage extracts the "message" field Discogs puts in error bodies.
func readErrorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil || body.Message == "" {
		return "no error message"
	}
	return body.Message
}
