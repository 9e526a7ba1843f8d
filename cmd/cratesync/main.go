// Cratesync reconciles a user-curated YAML wantfile against a Discogs
// collection folder: releases listed in the wantfile are added, releases
// missing from it are deleted, until the folder matches the file.
//
// Usage:
//
//	cratesync setup                       # interactive first-run wizard
//	cratesync sync-once [--config <path>] # single reconcile pass then exit
//	cratesync daemon [--config <path>]    # periodic reconcile on poll_interval
//	cratesync lookup <barcode>            # resolve a barcode into the wantfile
//	cratesync status                      # show config and recent runs
//	cratesync version                     # print version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/njoerd114/cratesync/internal/config"
	"github.com/njoerd114/cratesync/internal/discogs"
	"github.com/njoerd114/cratesync/internal/journal"
	"github.com/njoerd114/cratesync/internal/lookup"
	"github.com/njoerd114/cratesync/internal/pace"
	"github.com/njoerd114/cratesync/internal/setup"
	syncp "github.com/njoerd114/cratesync/internal/sync"
	"github.com/njoerd114/cratesync/internal/telemetry"
	"github.com/njoerd114/cratesync/internal/wantfile"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// run dispatches to the appropriate subcommand.
func run() error {
	if len(os.Args) < 2 {
		return printUsage()
	}

	switch cmd := os.Args[1]; cmd {
	case "setup":
		return runSetup()
	case "sync-once":
		return runSync(os.Args[2:], false)
	case "daemon":
		return runSync(os.Args[2:], true)
	case "lookup":
		return runLookup(os.Args[2:])
	case "status":
		return runStatus()
	case "version":
		fmt.Println("cratesync", version)
		return nil
	default:
		return fmt.Errorf("unknown command %q — run 'cratesync' for usage", cmd)
	}
}

// printUsage shows help and suggests setup if no config exists.
func printUsage() error {
	cfgPath, _ := config.DefaultPath()
	_, cfgErr := os.Stat(cfgPath)

	fmt.Fprintln(os.Stderr, "cratesync — keep a Discogs collection folder in sync with a wantfile")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  cratesync setup                        Interactive first-run wizard")
	fmt.Fprintln(os.Stderr, "  cratesync sync-once [--config <path>]  Single reconcile pass then exit")
	fmt.Fprintln(os.Stderr, "  cratesync daemon [--config <path>]     Periodic reconcile on poll_interval")
	fmt.Fprintln(os.Stderr, "  cratesync lookup <barcode>             Resolve a barcode into the wantfile")
	fmt.Fprintln(os.Stderr, "  cratesync status                       Show config and recent runs")
	fmt.Fprintln(os.Stderr, "  cratesync version                      Print version")
	fmt.Fprintln(os.Stderr, "")

	if cfgErr != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Run 'cratesync setup' to get started.")
	}

	os.Exit(1)
	return nil // unreachable
}

// --- Subcommands -------------------------------------------------------------

// runSetup launches the interactive setup wizard.
func runSetup() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	wiz := setup.NewWizard(os.Stdin, os.Stdout, logger)
	return wiz.Run(ctx)
}

// runSync handles both "sync-once" and "daemon".
func runSync(args []string, daemon bool) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	defaultCfg, _ := config.DefaultPath()
	cfgPath := fs.String("config", defaultCfg, "path to config.yaml")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return startSync(*cfgPath, *verbose, daemon)
}

// runLookup resolves a barcode and appends the hit to the wantfile.
func runLookup(args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	defaultCfg, _ := config.DefaultPath()
	cfgPath := fs.String("config", defaultCfg, "path to config.yaml")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: cratesync lookup <barcode>")
	}

	logger := newLogger(*verbose)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config from %q: %w", *cfgPath, err)
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pacer := pace.NewLimiter(cfg.CallInterval, cfg.PageInterval)
	tool := lookup.NewTool(client, wantfile.NewStore(cfg.Wantfile), pacer, logger, os.Stdout)
	return tool.Run(ctx, fs.Arg(0))
}

// runStatus prints the current configuration and recent reconcile runs.
func runStatus() error {
	cfgPath, _ := config.DefaultPath()
	journalPath, _ := journal.DefaultPath()

	fmt.Println("cratesync status")
	fmt.Println("────────────────")

	cfg, loadErr := config.Load(cfgPath)
	if loadErr != nil {
		fmt.Printf("  Config:    %s (unusable: %v)\n", cfgPath, loadErr)
		return nil
	}
	fmt.Printf("  Config:    %s ✓\n", cfgPath)
	fmt.Printf("  User:      %s\n", cfg.Username)
	fmt.Printf("  Folder:    %d\n", cfg.Folder())

	if desired, err := wantfile.NewStore(cfg.Wantfile).Load(); err == nil {
		fmt.Printf("  Wantfile:  %s (%d releases)\n", cfg.Wantfile, desired.Len())
	} else {
		fmt.Printf("  Wantfile:  %s (unusable: %v)\n", cfg.Wantfile, err)
	}

	j, err := journal.Open(journalPath)
	if err != nil {
		fmt.Printf("  Journal:   not available (%v)\n", err)
		return nil
	}
	defer func() { _ = j.Close() }()

	runs, err := j.RecentRuns(context.Background(), 5)
	if err != nil || len(runs) == 0 {
		fmt.Println("  Runs:      none recorded")
		return nil
	}

	fmt.Println("  Recent runs:")
	for _, r := range runs {
		outcome := fmt.Sprintf("+%d −%d", r.Added, r.Deleted)
		if r.Aborted {
			outcome = "aborted: " + r.Error
		} else if r.Ghosts+r.ValidationSkipped+r.Failed > 0 {
			outcome += fmt.Sprintf(" (%d ghost, %d skipped, %d failed)",
				r.Ghosts, r.ValidationSkipped, r.Failed)
		}
		fmt.Printf("    %s  %s\n", r.StartedAt.Local().Format(time.DateTime), outcome)
	}
	return nil
}

// --- Sync core ---------------------------------------------------------------

// startSync is the shared implementation for sync-once and daemon modes.
func startSync(cfgPath string, verbose, daemon bool) error {
	logger := newLogger(verbose)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config from %q: %w", cfgPath, err)
	}
	logger.Info("config loaded",
		"user", cfg.Username,
		"folder", cfg.Folder(),
		"wantfile", cfg.Wantfile,
	)

	// --- Telemetry (optional) ------------------------------------------------

	if cfg.Telemetry != nil {
		telCfg := telemetry.Config{
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			Insecure:     cfg.Telemetry.Insecure,
			ServiceName:  cfg.Telemetry.ServiceName,
			Headers:      cfg.Telemetry.Headers,
		}
		shutdownTel, err := telemetry.Setup(context.Background(), telCfg)
		if err != nil {
			logger.Error("telemetry setup failed, continuing without telemetry", "error", err)
		} else {
			logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTel(flushCtx); err != nil {
					logger.Error("telemetry shutdown error", "error", err)
				}
			}()
		}
	}

	// --- Run journal ---------------------------------------------------------

	journalPath, err := journal.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolving journal path: %w", err)
	}
	j, err := journal.Open(journalPath)
	if err != nil {
		return fmt.Errorf("opening run journal at %q: %w", journalPath, err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			logger.Error("closing run journal", "error", closeErr)
		}
	}()

	// --- Engine wiring -------------------------------------------------------

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	store := wantfile.NewStore(cfg.Wantfile)
	pacer := pace.NewLimiter(cfg.CallInterval, cfg.PageInterval)
	reader := syncp.NewReader(client, pacer, logger)
	validator := syncp.NewValidator(client, pacer, logger)
	reconciler := syncp.NewReconciler(reader, validator, client, pacer, cfg.Folder(), logger)
	engine := syncp.NewEngine(reconciler, store, j, cfg.PollInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// --- First-run seed guard (interactive modes only) -----------------------

	if !daemon {
		desired, err := store.Load()
		if err != nil {
			return fmt.Errorf("loading wantfile: %w", err)
		}
		seed := syncp.NewSeed(reader, store, logger, os.Stdin, os.Stdout)
		if _, err := seed.Run(ctx, cfg.Folder(), desired); err != nil {
			return fmt.Errorf("first-run seed guard: %w", err)
		}
	}

	// --- Dispatch mode -------------------------------------------------------

	if !daemon {
		logger.Info("running single reconcile pass")
		rep, err := engine.RunOnce(ctx)
		logger.Info("sync complete",
			"added", rep.Added,
			"deleted", rep.Deleted,
			"ghosts", rep.Ghosts,
			"validation_skipped", rep.ValidationSkipped,
			"failed", rep.Failed,
		)
		return err
	}

	logger.Info("daemon starting", "poll_interval", cfg.PollInterval)
	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("sync engine: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// newLogger builds the process-wide slog logger.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// newClient builds the Discogs client from config.
func newClient(cfg *config.Config, logger *slog.Logger) (*discogs.Client, error) {
	client, err := discogs.NewClient(discogs.Config{
		BaseURL:   cfg.APIURL,
		Username:  cfg.Username,
		Token:     cfg.Token,
		UserAgent: fmt.Sprintf("%s/%s", cfg.UserAgent, version),
		PerPage:   cfg.PerPage,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating Discogs client: %w", err)
	}
	return client, nil
}
