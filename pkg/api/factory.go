package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/catalog"
)

// CatalogFactoryFunc adapts a function to CatalogFactory.
type CatalogFactoryFunc func(dir string, logger *zap.Logger) (CatalogCloser, error)

// OpenCatalog calls f.
func (f CatalogFactoryFunc) OpenCatalog(dir string, logger *zap.Logger) (CatalogCloser, error) {
	return f(dir, logger)
}

// NewCatalogFactory returns a factory for pebble-backed catalogs.
func NewCatalogFactory() CatalogFactory {
	return CatalogFactoryFunc(func(dir string, logger *zap.Logger) (CatalogCloser, error) {
		c, err := catalog.Open(dir, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// ServerStarterFunc adapts a function to ServerStarter.
type ServerStarterFunc func(ctx context.Context, cat Catalog, config ServerConfig, logger *zap.Logger) error

// StartServer calls f.
func (f ServerStarterFunc) StartServer(ctx context.Context, cat Catalog, config ServerConfig, logger *zap.Logger) error {
	return f(ctx, cat, config, logger)
}

type serverFactory struct{}

// NewServerFactory returns a factory whose starters run the HTTP server.
func NewServerFactory() ServerFactory {
	return serverFactory{}
}

func (serverFactory) CreateServerStarter() ServerStarter {
	return ServerStarterFunc(StartServer)
}
