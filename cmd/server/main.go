// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/mymusic/internal/api/connect"
	"github.com/osa030/mymusic/internal/api/playerv1/playerv1connect"
	"github.com/osa030/mymusic/internal/app/filter"
	"github.com/osa030/mymusic/internal/app/player"
	"github.com/osa030/mymusic/internal/app/theme"
	"github.com/osa030/mymusic/internal/infra/audio"
	"github.com/osa030/mymusic/internal/infra/config"
	"github.com/osa030/mymusic/internal/infra/library"
	"github.com/osa030/mymusic/internal/infra/logger"
	"github.com/osa030/mymusic/internal/infra/store"
)

var (
	app        = kingpin.New("mymusic-server", "mymusic local music player server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listFiltersCmd  = app.Command("list-filters", "List available filters and exit")
	listBackendsCmd = app.Command("list-backends", "List available audio backends and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case listBackendsCmd.FullCommand():
		printBackends()
		return
	}

	// Bootstrap logger until the config is loaded
	if _, err := logger.Init(loggerConfig(config.LogConfig{})); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	closeLog, err := logger.Init(loggerConfig(cfg.Log))
	if err != nil {
		zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
	}

	err = run(cfg)
	_ = closeLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// loggerConfig merges the config file's log section with command-line flags.
func loggerConfig(lc config.LogConfig) logger.Config {
	out := logger.Config{
		Output: lc.Output,
		Level:  lc.Level,
		File:   lc.File,
	}
	if out.Output == "" {
		out.Output = "stdout"
	}
	if out.Level == "" {
		out.Level = "info"
	}
	if *verbose {
		out.Level = "debug"
	}
	if *logfile != "" {
		out.Output = "file"
		out.File = *logfile
	}
	return out
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	filters, err := filter.Build(cfg.EnabledFilters())
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	scanner := library.NewScanner(library.Config{
		Dirs:       cfg.Library.Dirs,
		Extensions: cfg.Library.NormalizedExtensions(),
	})

	backend, err := audio.NewBackend(cfg.Audio.Type, cfg.Audio.Settings)
	if err != nil {
		return errors.Wrap(err, "failed to create audio backend")
	}

	selectionStore, err := store.Open(cfg.Store.Path, cfg.Store.Namespace)
	if err != nil {
		_ = backend.Close()
		return errors.Wrap(err, "failed to open selection store")
	}

	scheme, err := theme.ParseScheme(cfg.Theme.Default)
	if err != nil {
		scheme = theme.Light
	}

	playerMgr := player.NewManager(
		player.Config{Theme: scheme},
		scanner,
		filters,
		backend,
		selectionStore,
	)
	// Manager owns the backend and the store from here on
	defer playerMgr.Close()

	if err := playerMgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start player")
	}

	playerService := apiconnect.NewPlayerService(playerMgr)
	path, handler := playerv1connect.NewPlayerServiceHandler(
		playerService,
		connect.WithInterceptors(apiconnect.NewControlTokenInterceptor(cfg.Control.Token)),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	serverAddr := cfg.Server.Addr
	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s backend=%s", serverAddr, backend.Name())
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case <-playerMgr.Done():
		zlog.Info().Msg("Player closed, shutting down...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the player first so notification streams terminate
	playerMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// printBackends prints available audio backends.
func printBackends() {
	fmt.Println("Available Audio Backends:")
	for _, name := range audio.Types() {
		fmt.Printf("  %s\n", name)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// sh -c allows redirection and pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
