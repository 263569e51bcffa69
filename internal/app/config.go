package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"90s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"75s"`
	AppRateLimit      int           `envconfig:"APP_RATE_LIMIT" default:"240"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"ghg_session"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	APIBaseURL string        `envconfig:"GHG_API_BASE_URL" default:"http://127.0.0.1:5000"`
	APITimeout time.Duration `envconfig:"GHG_API_TIMEOUT" default:"60s"`

	WorkspaceIdleTTL time.Duration `envconfig:"WORKSPACE_IDLE_TTL" default:"2h"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`
}

// MinWorkspaceIdleTTL is the shortest accepted WORKSPACE_IDLE_TTL. Zero disables pruning.
const MinWorkspaceIdleTTL = time.Minute

// LoadConfig reads configuration from environment variables. A .env file in the working
// directory, or the file named by GHG_ENV_FILE, is loaded first without overriding
// variables that are already set.
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("emissions api base url must be provided")
	}
	if cfg.AppRateLimit <= 0 {
		return nil, fmt.Errorf("APP_RATE_LIMIT must be positive, got %d", cfg.AppRateLimit)
	}
	if cfg.WorkspaceIdleTTL != 0 && cfg.WorkspaceIdleTTL < MinWorkspaceIdleTTL {
		return nil, fmt.Errorf("WORKSPACE_IDLE_TTL must be 0 or at least %s, got %s", MinWorkspaceIdleTTL, cfg.WorkspaceIdleTTL)
	}
	return &cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv("GHG_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
