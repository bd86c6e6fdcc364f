package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "STUDIO"

type Config struct {
	App       AppConfig
	Transport TransportConfig
	Admin     AdminConfig
}

type AppConfig struct {
	DataDir          string `envconfig:"STUDIO_DATA_DIR"`
	CatalogDir       string `envconfig:"STUDIO_CATALOG_DIR"`
	LogLevel         string `envconfig:"STUDIO_LOG_LEVEL" default:"info"`
	LogFormat        string `envconfig:"STUDIO_LOG_FORMAT" default:"json"`
	BackupOnShutdown bool   `envconfig:"STUDIO_BACKUP_ON_SHUTDOWN" default:"true"`
}

type TransportConfig struct {
	RPCSocket string `envconfig:"STUDIO_RPC_SOCKET" default:"/tmp/studio.sock"`
	HTTPAddr  string `envconfig:"STUDIO_HTTP_ADDR" default:"127.0.0.1:8787"`
}

// AdminConfig is the seed used when the users table is empty.
type AdminConfig struct {
	Email    string `envconfig:"STUDIO_ADMIN_EMAIL" default:"admin@local"`
	Name     string `envconfig:"STUDIO_ADMIN_NAME" default:"Admin"`
	Password string `envconfig:"STUDIO_ADMIN_PASSWORD" default:"admin"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.App.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.App.DataDir = dir
	}
	return &cfg, nil
}

// DefaultDataDir is the per-user application data directory.
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "studio"), nil
}

// CatalogPath returns the configured catalog folder or <data>/services.
func (a AppConfig) CatalogPath() string {
	if a.CatalogDir != "" {
		return a.CatalogDir
	}
	return filepath.Join(a.DataDir, "services")
}
