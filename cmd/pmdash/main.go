package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/backend/embedded"
	"github.com/tgienger/pmdash/internal/backend/rest"
	"github.com/tgienger/pmdash/internal/config"
	"github.com/tgienger/pmdash/internal/logging"
	"github.com/tgienger/pmdash/internal/prefs"
	"github.com/tgienger/pmdash/internal/session"
	"github.com/tgienger/pmdash/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pmdash",
		Short:         "Terminal dashboard for projects, tasks and events",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDashboard,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// The terminal belongs to the UI; logs go to a file
	logFile, err := logging.OpenFile(cfg.LogPath())
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := logging.New(logFile, "pmdash")

	client, closeClient, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient()

	p, err := prefs.Load(cfg.PrefsPath())
	if err != nil {
		logger.Printf("load prefs: %v", err)
		p = prefs.Default()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sess := session.New(client, logging.New(logFile, "session"))
	app := ui.NewApp(ctx, client, sess, p, cfg.PrefsPath(), logging.New(logFile, "ui"))
	defer app.Close()

	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

// newClient builds the platform client the configuration selects
func newClient(cfg config.Config, logger *log.Logger) (backend.Client, func(), error) {
	if cfg.Backend == config.BackendRemote {
		logger.Printf("using remote platform at %s", cfg.URL)
		client := rest.New(cfg.URL, cfg.AnonKey,
			rest.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			rest.WithLogger(logging.New(logger.Writer(), "rest")),
		)
		return client, func() {}, nil
	}

	db, tokens, err := openEmbedded(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Printf("using embedded database %s", cfg.DatabasePath())
	client := embedded.NewClient(db, tokens, logging.New(logger.Writer(), "embedded"))
	return client, func() { db.Close() }, nil
}

func openEmbedded(cfg config.Config) (*embedded.DB, *embedded.Tokens, error) {
	db, err := embedded.Open(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	// Without a configured secret, tokens only live as long as the process
	secret := cfg.JWTSecret
	if secret == "" {
		secret = rand.Text()
	}
	tokens, err := embedded.NewTokens(secret, cfg.SessionTTL)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("session tokens: %w", err)
	}
	return db, tokens, nil
}
