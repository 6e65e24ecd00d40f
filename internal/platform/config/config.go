// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	applog "github.com/janisto/huma-greeter/internal/platform/logging"
)

// Defaults.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 7878
	DefaultDocsPath        = "/api-docs"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds every runtime setting of the server.
type Config struct {
	Host               string
	Port               int
	LogLevel           string
	DocsPath           string
	MaxBodyBytes       int64
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	// ProjectID enables Cloud Trace correlation in logs when set.
	ProjectID      string
	MetricsEnabled bool
}

// projectIDKeys are checked in order; the first non-empty one wins.
var projectIDKeys = []string{"google_cloud_project", "gcp_project", "gcloud_project", "project_id"}

// Load reads configuration. Variables from envFiles (default ".env") are
// applied first without overriding the real environment; missing files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log_level", applog.DefaultLevel)
	v.SetDefault("docs_path", DefaultDocsPath)
	v.SetDefault("max_body_bytes", DefaultMaxBodyBytes)
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("metrics_enabled", true)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	cfg := Config{
		Host:               v.GetString("host"),
		Port:               v.GetInt("port"),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		DocsPath:           v.GetString("docs_path"),
		MaxBodyBytes:       v.GetInt64("max_body_bytes"),
		ShutdownTimeout:    v.GetDuration("shutdown_timeout"),
		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		ProjectID:          firstNonEmpty(v, projectIDKeys...),
		MetricsEnabled:     v.GetBool("metrics_enabled"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d: must be between 1 and 65535", c.Port)
	}
	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid MAX_BODY_BYTES %d: must be positive", c.MaxBodyBytes)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %s: must be positive", c.ShutdownTimeout)
	}
	if c.DocsPath != "" && !strings.HasPrefix(c.DocsPath, "/") {
		return fmt.Errorf("invalid DOCS_PATH %q: must start with /", c.DocsPath)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func firstNonEmpty(v *viper.Viper, keys ...string) string {
	for _, k := range keys {
		if val := strings.TrimSpace(v.GetString(k)); val != "" {
			return val
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
