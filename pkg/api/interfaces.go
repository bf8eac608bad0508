package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/catalog"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/table"
)

// Catalog defines the catalog operations the server needs
type Catalog interface {
	Ingest(frame *table.Frame, source string) (catalog.Entry, error)
	Networks() ([]catalog.Entry, error)
	Network(key string) (catalog.Entry, error)
	PointIDs(key string) ([]string, error)
	Point(key, pointID string) (schema.Point, error)
	Delete(key string) error
}

// CatalogCloser is a catalog that owns resources
type CatalogCloser interface {
	Catalog
	Close() error
}

// CatalogFactory opens catalogs
type CatalogFactory interface {
	// OpenCatalog opens or creates the catalog stored in dir
	OpenCatalog(dir string, logger *zap.Logger) (CatalogCloser, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the catalog until ctx is done
	StartServer(ctx context.Context, cat Catalog, config ServerConfig, logger *zap.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
