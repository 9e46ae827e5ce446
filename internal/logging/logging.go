package logging

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// NewHandler returns a text handler writing INFO/WARN to stdout and ERROR to
// stderr, with sensitive attributes redacted.
func NewHandler(stdout, stderr io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo, ReplaceAttr: Redact}
	return &levelRouter{
		stdout: slog.NewTextHandler(stdout, opts),
		stderr: slog.NewTextHandler(stderr, opts),
	}
}

// Setup installs the default logger. If logPath is non-empty, all levels are
// also written to that file. The returned cleanup closes the file, if opened.
func Setup(logPath string) (func(), error) {
	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)
	cleanup := func() {}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(NewHandler(stdoutW, stderrW)))
	return cleanup, nil
}

// Redact masks credentials and personal data by attribute key: passwords
// are dropped, tokens and keys truncated, e-mails masked and user ids hashed.
func Redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)

	switch {
	case strings.Contains(key, "password") || strings.Contains(key, "secret"):
		return slog.String(a.Key, "[REDACTED]")
	case strings.Contains(key, "token") || strings.Contains(key, "authorization") || strings.Contains(key, "apikey"):
		return slog.String(a.Key, truncate(a.Value.String()))
	case strings.Contains(key, "email"):
		return slog.String(a.Key, maskEmail(a.Value.String()))
	case key == "user_id" || key == "userid":
		return slog.String(a.Key, hashUserID(a.Value.String()))
	}
	return a
}

func truncate(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "****"
	}
	if len(local) <= 2 {
		return "****@" + domain
	}
	return local[:1] + "****" + local[len(local)-1:] + "@" + domain
}

func hashUserID(id string) string {
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("user_%x", sum[:4])
}
