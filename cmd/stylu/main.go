package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/stylu/internal/api"
	"github.com/erazemk/stylu/internal/config"
	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/logging"
)

func main() {
	fs := flag.NewFlagSet("stylu", flag.ContinueOnError)

	var envFile string
	fs.StringVar(&envFile, "env", ".env", "")
	fs.StringVar(&envFile, "e", ".env", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: stylu [flags]

Flags:
  -e, -env <path>         environment file to load (default: .env, ignored if missing)
  -a, -addr <host:port>   listen address (default: :$PORT, or :5038)
  -l, -log <path>         log file path (default: $LOG_PATH, or stdout/stderr only)
  -h, -help               show this help and exit

Environment:
  SUPABASE_URL, SUPABASE_PROJECT_REF, SUPABASE_ANON_KEY, SUPABASE_JWT_SECRET,
  CORS_ALLOWED_ORIGINS, PORT, LOG_PATH
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}

	// INFO/WARN → stdout, ERROR → stderr, optionally teed to a file.
	closeLog, err := logging.Setup(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	client, err := db.Open(cfg.SupabaseURL, cfg.AnonKey, &http.Client{})
	if err != nil {
		slog.Error("failed to set up store client", "error", err)
		os.Exit(1)
	}

	slog.Info("store configured", "url", cfg.SupabaseURL, "issuer", cfg.Issuer())

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(cfg, client),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
