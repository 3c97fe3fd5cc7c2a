// Command redixd is the browser shell backend daemon. It serves the /v1
// HTTP API for the UI and, with -mcp, exposes the same surface as MCP
// tools over stdio for agents.
//
// Usage:
//
//	redixd -config redix.yaml
//	redixd -data-dir ~/.redix -listen 127.0.0.1:7490
//	redixd -mcp
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/omnibrowser/redix/config"
	"github.com/omnibrowser/redix/dbopen"
	"github.com/omnibrowser/redix/observability"
	"github.com/omnibrowser/redix/shell"
	"github.com/omnibrowser/redix/stability"
	"github.com/omnibrowser/redix/store"
	"github.com/omnibrowser/redix/watch"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "redix.yaml", "path to config file")
	listenAddr := flag.String("listen", "", "HTTP listen address (overrides config)")
	dataDir := flag.String("data-dir", "", "data directory (overrides config)")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools over stdio instead of HTTP")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("redixd", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "redixd:", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := newLogger(cfg.LogLevel, *mcpStdio)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *mcpStdio); err != nil {
		logger.Error("redixd: fatal", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. In MCP stdio mode stdout carries
// the protocol, so logs always go to stderr.
func newLogger(level string, _ bool) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, mcpStdio bool) error {
	st, err := store.Open(filepath.Join(cfg.DataDir, "redix.db"),
		dbopen.WithSchema(observability.Schema))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	sh, err := shell.New(cfg, st, shell.WithLogger(logger))
	if err != nil {
		return err
	}
	defer sh.Shutdown()

	if err := sh.ReloadSettings(ctx); err != nil {
		logger.Warn("initial settings load failed", "error", err)
	}

	// Pick up settings edits made by other connections.
	settingsWatch := watch.New(st.DB, watch.Options{
		Interval: time.Second,
		Debounce: 500 * time.Millisecond,
		Detector: watch.MaxColumnDetector("settings", "updated_at"),
		Logger:   logger,
	})
	go settingsWatch.OnChange(ctx, func() error { return sh.ReloadSettings(ctx) })

	// Memory watchdog: sleep idle tabs under RAM pressure.
	watchdog := stability.NewWatchdog(cfg.Stability.CheckInterval, cfg.Stability.LowRAMThreshold,
		stability.WithWatchdogLogger(logger))
	watchdog.OnPressure = func(used float64) {
		if n := sh.SleepIdleTabs(ctx); n > 0 {
			logger.Info("slept tabs under memory pressure", "count", n, "used_fraction", used)
		}
	}
	go watchdog.Run(ctx)

	// Event log retention.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := observability.Cleanup(ctx, st.DB, cfg.Retention.EventDays, cfg.Retention.Vacuum); err != nil {
					logger.Warn("event cleanup failed", "error", err)
				}
			}
		}
	}()

	if mcpStdio {
		return runMCP(ctx, sh, logger)
	}
	return runHTTP(ctx, cfg, sh, logger)
}

func runHTTP(ctx context.Context, cfg *config.Config, sh *shell.Shell, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           shell.Router(sh),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.ListenAddr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func runMCP(ctx context.Context, sh *shell.Shell, logger *slog.Logger) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "redix", Version: version}, nil)
	sh.RegisterMCP(srv)

	logger.Info("mcp serving on stdio", "version", version)
	return srv.Run(ctx, &mcp.StdioTransport{})
}
