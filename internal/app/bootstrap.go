// Package app wires together config, logging, a Search Backend, the
// Index Manager, and the Service facade the same way in all three
// pyrite binaries.
package app

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/markramm/pyrite/internal/config"
	"github.com/markramm/pyrite/internal/logx"
	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/backend/columnarstore"
	"github.com/markramm/pyrite/pkg/backend/pgstore"
	"github.com/markramm/pyrite/pkg/backend/sqlitestore"
	"github.com/markramm/pyrite/pkg/indexmanager"
	"github.com/markramm/pyrite/pkg/relations"
	"github.com/markramm/pyrite/pkg/service"
)

// App bundles the process-wide singletons a command or handler needs.
type App struct {
	Config  *config.Config
	Logger  arbor.ILogger
	Backend backend.Backend
	Index   *indexmanager.Manager
	Service *service.Service
}

// Bootstrap loads configuration from configPath (auto-discovering
// ./pyrite.toml when empty), opens the configured backend, and builds the
// Service facade on top of it.
func Bootstrap(configPath string) (*App, error) {
	if configPath == "" {
		if _, err := os.Stat("pyrite.toml"); err == nil {
			configPath = "pyrite.toml"
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logx.New(cfg.Logging)

	store, err := openBackend(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	hooks := &indexmanager.Hooks{}
	idx := indexmanager.New(store, hooks, nil, logger)

	reg := relations.NewRegistry()
	reg.Freeze()

	svc := service.New(store, idx, reg)

	return &App{Config: cfg, Logger: logger, Backend: store, Index: idx, Service: svc}, nil
}

func openBackend(cfg config.StorageConfig, logger arbor.ILogger) (backend.Backend, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "pyrite.db"
		}
		return sqlitestore.New(sqlitestore.Config{Path: path, Logger: logger})
	case "postgres":
		return pgstore.New(pgstore.Config{DSN: cfg.DSN, Logger: logger})
	case "columnar":
		dir := cfg.Path
		if dir == "" {
			dir = "pyrite-columnar"
		}
		return columnarstore.New(columnarstore.Config{Dir: dir, Logger: logger})
	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Driver)
	}
}

// Close releases the backend's resources and flushes logging.
func (a *App) Close() error {
	defer logx.Stop()
	return a.Backend.Close()
}
