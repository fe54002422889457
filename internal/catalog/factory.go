package catalog

import (
	"fmt"
	"path/filepath"

	"photopull/internal/config"
)

// NewCatalogFromConfig creates a catalog based on the catalog config type.
func NewCatalogFromConfig(cfg config.CatalogConfig) (*SQLiteCatalog, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite catalog")
		}
		return NewSQLiteCatalog(filepath.Join(cfg.DataDir, "catalog.db"))
	case "memory":
		return NewSQLiteCatalog(":memory:")
	default:
		return nil, fmt.Errorf("unknown catalog type: %s", cfg.Type)
	}
}
