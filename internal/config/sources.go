package config

import (
	"context"
	"fmt"
	"os"

	"github.com/kamilpajak/diagnosa/internal/catalog"
	"github.com/kamilpajak/diagnosa/internal/database"
	"github.com/kamilpajak/diagnosa/pkg/contradiction"
	"go.uber.org/zap"
)

// OpenCatalog opens the configured catalog source: the database when a URL
// is set (migrated first if catalog.migrate is on), then the catalog file,
// then the embedded default. The returned func releases the source.
func (c *Config) OpenCatalog(ctx context.Context, logger *zap.Logger) (catalog.Provider, func(), error) {
	switch {
	case c.Catalog.DatabaseURL != "":
		if c.Catalog.Migrate {
			if err := database.Migrate(c.Catalog.DatabaseURL); err != nil {
				return nil, nil, err
			}
		}
		db, err := database.New(ctx, c.Catalog.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("catalog source", zap.String("source", "database"))
		return db, db.Close, nil

	case c.Catalog.Path != "":
		logger.Info("catalog source", zap.String("source", c.Catalog.Path))
		return catalog.NewFileProvider(c.Catalog.Path), func() {}, nil

	default:
		logger.Info("catalog source", zap.String("source", "embedded"))
		return catalog.Default(), func() {}, nil
	}
}

// LoadRules returns the contradiction table from engine.rules_path, or the
// built-in table when no path is set.
func (c *Config) LoadRules() (*contradiction.Table, error) {
	if c.Engine.RulesPath == "" {
		return contradiction.Default(), nil
	}
	f, err := os.Open(c.Engine.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules: %w", err)
	}
	defer f.Close()
	return contradiction.Load(f)
}
