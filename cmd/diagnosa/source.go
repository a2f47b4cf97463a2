package diagnosa

import (
	"context"

	"github.com/kamilpajak/diagnosa/internal/catalog"
	"github.com/kamilpajak/diagnosa/pkg/engine"
)

// loadCatalog takes a snapshot from the configured source.
func loadCatalog(ctx context.Context) (engine.Catalog, error) {
	provider, closeProvider, err := cfg.OpenCatalog(ctx, logger)
	if err != nil {
		return engine.Catalog{}, err
	}
	defer closeProvider()
	return catalog.Load(ctx, provider)
}
