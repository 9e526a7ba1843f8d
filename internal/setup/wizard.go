package setup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/njoerd114/cratesync/internal/config"
	"github.com/njoerd114/cratesync/internal/discogs"
)

// Verifier checks credentials and lists folders during setup.
// Implemented by [discogs.Client].
type Verifier interface {
	User(ctx context.Context) (discogs.User, error)
	Folders(ctx context.Context) ([]discogs.Folder, error)
}

// NewVerifier builds the credentials checker for the wizard. A variable so
// tests can substitute a fake without standing up an HTTP server.
var NewVerifier = func(apiURL, username, token string, logger *slog.Logger) (Verifier, error) {
	return discogs.NewClient(discogs.Config{
		BaseURL:  apiURL,
		Username: username,
		Token:    token,
	}, logger)
}

// Wizard guides the user through first-run configuration.
type Wizard struct {
	prompt *Prompter
	logger *slog.Logger
	w      io.Writer
}

// NewWizard creates a Wizard wired to the given I/O and logger.
func NewWizard(r io.Reader, w io.Writer, logger *slog.Logger) *Wizard {
	return &Wizard{
		prompt: NewPrompter(r, w),
		logger: logger,
		w:      w,
	}
}

// Run executes the interactive setup wizard: credentials, folder selection,
// wantfile path, and config file creation.
func (wiz *Wizard) Run(ctx context.Context) error {
	fmt.Fprintf(wiz.w, "\nWelcome to cratesync setup!\n")
	fmt.Fprintf(wiz.w, "This wizard configures the collection sync target and credentials.\n\n")

	cfgPath, err := config.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	if _, statErr := os.Stat(cfgPath); statErr == nil {
		fmt.Fprintf(wiz.w, "  Existing config found at %s\n", cfgPath)
		if !wiz.prompt.Confirm("Overwrite existing configuration?", false) {
			fmt.Fprintf(wiz.w, "\n  Keeping existing config.\n")
			return nil
		}
		fmt.Fprintf(wiz.w, "\n")
	}

	// Step 1: credentials.
	fmt.Fprintf(wiz.w, "Step 1/3 — Discogs Credentials\n")

	username := wiz.prompt.String("Username", "")
	token := wiz.prompt.Secret("Personal access token")

	client, err := NewVerifier(config.DefaultAPIURL, username, token, wiz.logger)
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}

	fmt.Fprintf(wiz.w, "  Verifying credentials...")
	user, err := client.User(ctx)
	if err != nil {
		fmt.Fprintf(wiz.w, " ✗\n")
		return fmt.Errorf("cannot verify credentials: %w\n\n  Check the username and token, then try again", err)
	}
	fmt.Fprintf(wiz.w, " ✓ (%d releases in collection)\n\n", user.NumCollection)

	// Step 2: sync target folder.
	fmt.Fprintf(wiz.w, "Step 2/3 — Sync Target Folder\n")

	folderID, err := wiz.pickFolder(ctx, client)
	if err != nil {
		return err
	}

	// Step 3: wantfile path + save.
	fmt.Fprintf(wiz.w, "Step 3/3 — Wantfile\n")

	defaultWantfile, err := config.DefaultWantfilePath()
	if err != nil {
		return fmt.Errorf("resolving wantfile path: %w", err)
	}
	wantfilePath := wiz.prompt.String("Wantfile path", defaultWantfile)
	fmt.Fprintf(wiz.w, "\n")

	cfg := &config.Config{
		Username: username,
		Token:    token,
		Wantfile: wantfilePath,
		FolderID: &folderID,
	}
	if err := cfg.Write(cfgPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(wiz.w, "  ✓ Config written to %s\n\n", cfgPath)
	fmt.Fprintf(wiz.w, "Run 'cratesync sync-once' for a first pass.\n")
	return nil
}

// pickFolder lists the account's collection folders and asks the user to
// choose one. Folder 0 ("All") never appears — it cannot receive mutations.
func (wiz *Wizard) pickFolder(ctx context.Context, client Verifier) (int, error) {
	folders, err := client.Folders(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing collection folders: %w", err)
	}

	var selectable []discogs.Folder
	for _, f := range folders {
		if f.ID == 0 {
			continue
		}
		selectable = append(selectable, f)
	}
	if len(selectable) == 0 {
		fmt.Fprintf(wiz.w, "  No writable folders found, using folder %d (Uncategorized).\n\n", config.DefaultFolderID)
		return config.DefaultFolderID, nil
	}

	options := make([]string, len(selectable))
	for i, f := range selectable {
		options[i] = fmt.Sprintf("%s (%d releases)", f.Name, f.Count)
	}

	idx, err := wiz.prompt.Select("Which folder should cratesync manage?", options)
	if err != nil {
		return 0, fmt.Errorf("selecting folder: %w", err)
	}
	fmt.Fprintf(wiz.w, "\n")
	return selectable[idx].ID, nil
}
