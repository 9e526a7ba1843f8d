package discogs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testLogger = slog.Default()

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:   srv.URL,
		Username:  "crates",
		Token:     "secret-token",
		UserAgent: "cratesync-test/1.0",
		PerPage:   50,
	}, testLogger)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

// SCENARIO: every request carries the token auth scheme and a user agent.

func TestDo_SetsAuthAndUserAgentHeaders(t *testing.T) {
	var gotAuth, gotAgent string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"id": 1}`)
	})

	if _, err := c.Release(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Discogs token=secret-token" {
		t.Errorf("Authorization = %q, want the Discogs token scheme", gotAuth)
	}
	if gotAgent != "cratesync-test/1.0" {
		t.Errorf("User-Agent = %q, want the configured agent", gotAgent)
	}
}

// SCENARIO: pagination — the first page is built from config, later pages
// follow the cursor URL the server handed back verbatim.

func TestFetchPage_FirstPageUsesConfiguredPath(t *testing.T) {
	var gotPath, gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"releases": [{"id": 7, "instance_id": 70}]}`)
	})

	items, next, err := c.FetchPage(context.Background(), 4, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/users/crates/collection/folders/4/releases" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "per_page=50" {
		t.Errorf("query = %q, want per_page=50", gotQuery)
	}
	if len(items) != 1 || items[0].ID != 7 || items[0].InstanceID != 70 {
		t.Errorf("items = %+v, want one item 7/70", items)
	}
	if next != "" {
		t.Errorf("next = %q, want empty on a cursor-less page", next)
	}
}

func TestFetchPage_FollowsNextCursor(t *testing.T) {
	var paths []string
	var srv *httptest.Server
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/page2" {
			fmt.Fprint(w, `{"releases": [{"id": 2, "instance_id": 20}]}`)
			return
		}
		fmt.Fprintf(w, `{
			"pagination": {"urls": {"next": %q}},
			"releases": [{"id": 1, "instance_id": 10}]
		}`, srv.URL+"/page2")
	})

	_, next, err := c.FetchPage(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if next == "" {
		t.Fatal("next cursor empty, want the page2 URL")
	}

	items, next, err := c.FetchPage(context.Background(), 1, next)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if next != "" {
		t.Errorf("next = %q, want empty on the last page", next)
	}
	if len(items) != 1 || items[0].ID != 2 {
		t.Errorf("items = %+v, want release 2", items)
	}
	if len(paths) != 2 || paths[1] != "/page2" {
		t.Errorf("request paths = %v, want the cursor followed verbatim", paths)
	}
}

// SCENARIO: mutations hit the right endpoints with the right verbs.

func TestAddRelease_PostsToInstancelessEndpoint(t *testing.T) {
	var gotMethod, gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
	})

	if err := c.AddRelease(context.Background(), 1, 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/users/crates/collection/folders/1/releases/99" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestDeleteInstance_AddressesTheSpecificHolding(t *testing.T) {
	var gotMethod, gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DeleteInstance(context.Background(), 1, 99, 990); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", gotMethod)
	}
	if gotPath != "/users/crates/collection/folders/1/releases/99/instances/990" {
		t.Errorf("path = %q", gotPath)
	}
}

// SCENARIO: error statuses map to readable errors.

func TestDo_ErrorStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "401"},
		{http.StatusNotFound, "404"},
		{http.StatusTooManyRequests, "429"},
		{http.StatusInternalServerError, "500"},
	}
	for _, tt := range tests {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			fmt.Fprint(w, `{"message": "nope"}`)
		})

		_, err := c.Release(context.Background(), 1)
		if err == nil {
			t.Errorf("status %d: expected error, got nil", tt.status)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("status %d: error %q does not mention %q", tt.status, err, tt.want)
		}
	}
}

func TestDo_UnexpectedStatusIncludesServerMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message": "release does not exist"}`)
	})

	_, err := c.Release(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "release does not exist") {
		t.Errorf("error %q does not carry the server message", err)
	}
}

// SCENARIO: barcode search.

func TestSearchBarcode_EscapesQueryAndDecodesResults(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("barcode")
		fmt.Fprint(w, `{"results": [
			{"id": 123, "title": "Artist - Album", "year": "1999", "country": "DE"}
		]}`)
	})

	results, err := c.SearchBarcode(context.Background(), "4 006408 130017")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "4 006408 130017" {
		t.Errorf("barcode query = %q", gotQuery)
	}
	if len(results) != 1 || results[0].ID != 123 || results[0].Title != "Artist - Album" {
		t.Errorf("results = %+v", results)
	}
}

// SCENARIO: config validation.

func TestNewClient_RejectsIncompleteConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing base URL", Config{Username: "u", Token: "t"}},
		{"bad scheme", Config{BaseURL: "ftp://x", Username: "u", Token: "t"}},
		{"missing username", Config{BaseURL: "https://x", Token: "t"}},
		{"missing token", Config{BaseURL: "https://x", Username: "u"}},
	}
	for _, tt := range tests {
		if _, err := NewClient(tt.cfg, testLogger); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}
}
