// blog/config.go
package blog

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config is read from the environment. DATABASE_URL may be left empty in
// dev mode, in which case the server runs on the in-memory store.
type Config struct {
	Addr            string        `env:"ADDR,default=:8080"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	TemplateGlob    string        `env:"TEMPLATE_GLOB,default=templates/*.html"`
	MediaDir        string        `env:"MEDIA_DIR,default=media"`
	GroupsFile      string        `env:"GROUPS_FILE"`
	PageSize        int           `env:"PAGE_SIZE,default=10"`
	IndexCacheTTL   time.Duration `env:"INDEX_CACHE_TTL,default=20s"`
	SessionLifetime time.Duration `env:"SESSION_LIFETIME,default=168h"`
	Dev             bool          `env:"DEV,default=false"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config from environment: %w", err)
	}
	if cfg.PageSize < 1 {
		return Config{}, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if cfg.DatabaseURL == "" && !cfg.Dev {
		return Config{}, fmt.Errorf("DATABASE_URL is required unless DEV=true")
	}
	return cfg, nil
}
