// Package catalog loads damage and symptom catalogs from their sources.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/kamilpajak/diagnosa/pkg/engine"
	"github.com/kamilpajak/diagnosa/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var embedded []byte

// Provider supplies the damages and symptoms of a catalog.
type Provider interface {
	Damages(ctx context.Context) ([]models.Damage, error)
	Symptoms(ctx context.Context) ([]models.Symptom, error)
}

// Load reads both sides of a catalog from p into one snapshot.
func Load(ctx context.Context, p Provider) (engine.Catalog, error) {
	damages, err := p.Damages(ctx)
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("failed to load damages: %w", err)
	}
	symptoms, err := p.Symptoms(ctx)
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("failed to load symptoms: %w", err)
	}
	return engine.Catalog{Damages: damages, Symptoms: symptoms}, nil
}

// DamageGetter is implemented by providers that can look up a single
// damage without reading the whole catalog.
type DamageGetter interface {
	GetDamage(ctx context.Context, code string) (*models.Damage, error)
}

// GetDamage returns the damage with the given code, or nil if there is none.
func GetDamage(ctx context.Context, p Provider, code string) (*models.Damage, error) {
	if g, ok := p.(DamageGetter); ok {
		return g.GetDamage(ctx, code)
	}
	damages, err := p.Damages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load damages: %w", err)
	}
	for i := range damages {
		if damages[i].Code == code {
			return &damages[i], nil
		}
	}
	return nil, nil
}

// Static serves a snapshot that is already in memory.
type Static struct {
	Catalog engine.Catalog
}

func (s Static) Damages(context.Context) ([]models.Damage, error) {
	return s.Catalog.Damages, nil
}

func (s Static) Symptoms(context.Context) ([]models.Symptom, error) {
	return s.Catalog.Symptoms, nil
}

var defaultCatalog = sync.OnceValues(func() (engine.Catalog, error) {
	return decodeYAML(embedded)
})

// Default returns the built-in laptop/PC catalog.
func Default() Static {
	cat, err := defaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return Static{Catalog: cat}
}

func decodeYAML(data []byte) (engine.Catalog, error) {
	var cat engine.Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return engine.Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return cat, nil
}
