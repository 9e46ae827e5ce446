package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// TokenLeeway is the clock skew tolerated when checking token expiry.
	TokenLeeway = 2 * time.Minute

	defaultPort = "5038"
)

// Config is read once at startup and passed by value afterwards.
type Config struct {
	Addr           string
	SupabaseURL    string
	ProjectRef     string
	AnonKey        string
	JWTSecret      string
	AllowedOrigins []string
	LogPath        string
}

// Issuer is the iss claim expected on bearer tokens.
func (c Config) Issuer() string {
	if c.ProjectRef != "" {
		return fmt.Sprintf("https://%s.supabase.co/auth/v1", c.ProjectRef)
	}
	return strings.TrimRight(c.SupabaseURL, "/") + "/auth/v1"
}

// Load reads envFile into the environment, if it exists, and builds the
// config from the environment. Variables already set win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Addr:        net.JoinHostPort("", env("PORT", defaultPort)),
		SupabaseURL: env("SUPABASE_URL", ""),
		ProjectRef:  env("SUPABASE_PROJECT_REF", ""),
		AnonKey:     env("SUPABASE_ANON_KEY", ""),
		JWTSecret:   env("SUPABASE_JWT_SECRET", ""),
		LogPath:     env("LOG_PATH", ""),
	}

	for _, origin := range strings.Split(env("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.SupabaseURL == "" {
		if cfg.ProjectRef == "" {
			return Config{}, errors.New("SUPABASE_URL or SUPABASE_PROJECT_REF must be set")
		}
		cfg.SupabaseURL = fmt.Sprintf("https://%s.supabase.co", cfg.ProjectRef)
	}
	if cfg.AnonKey == "" {
		return Config{}, errors.New("SUPABASE_ANON_KEY must be set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("SUPABASE_JWT_SECRET must be set")
	}

	return cfg, nil
}
