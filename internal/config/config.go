package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/wetrack/wetrack/internal/storage"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"WeTrack"`
		Currency string `envconfig:"APP_CURRENCY" default:"USD"`
	}

	API struct {
		BaseURL string        `envconfig:"API_URL" default:"http://localhost:8000"`
		Timeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
	}

	Storage struct {
		// Local database path; resolved per-user when empty.
		Path string `envconfig:"STORAGE_PATH" default:""`
	}

	DevServer struct {
		Port      int    `envconfig:"PORT" default:"8000"`
		JWTSecret string `envconfig:"JWT_SECRET" default:"dev-only-secret"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Storage.Path == "" {
		path, err := storage.DefaultPath()
		if err != nil {
			return nil, err
		}

		cfg.Storage.Path = path
	}

	return &cfg, nil
}
