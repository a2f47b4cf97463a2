package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamilpajak/diagnosa/pkg/engine"
	"github.com/kamilpajak/diagnosa/pkg/models"
)

// FileProvider reads a catalog from a YAML or JSON file. The format is
// chosen by extension: .json is JSON, anything else is YAML. The file is
// re-read on every call so edits are picked up without a restart.
type FileProvider struct {
	Path string
}

// NewFileProvider creates a FileProvider for path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (f *FileProvider) Damages(ctx context.Context) ([]models.Damage, error) {
	cat, err := f.read(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Damages, nil
}

func (f *FileProvider) Symptoms(ctx context.Context) ([]models.Symptom, error) {
	cat, err := f.read(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Symptoms, nil
}

func (f *FileProvider) read(ctx context.Context) (engine.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return engine.Catalog{}, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}

	if strings.EqualFold(filepath.Ext(f.Path), ".json") {
		var cat engine.Catalog
		if err := json.Unmarshal(data, &cat); err != nil {
			return engine.Catalog{}, fmt.Errorf("failed to parse catalog %s: %w", f.Path, err)
		}
		return cat, nil
	}

	cat, err := decodeYAML(data)
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("%s: %w", f.Path, err)
	}
	return cat, nil
}
