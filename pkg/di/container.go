// Package di provides dependency injection container
package di

import (
	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/api" //nolint:depguard
	"github.com/ssargent/isiscnet/pkg/logging"
)

// LoggerFactory builds a logger for a level name
type LoggerFactory func(level string) (*zap.Logger, error)

// Container holds all the dependencies for the application
type Container struct {
	catalogFactory api.CatalogFactory
	serverFactory  api.ServerFactory
	loggerFactory  LoggerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		catalogFactory: api.NewCatalogFactory(),
		serverFactory:  api.NewServerFactory(),
		loggerFactory:  logging.New,
	}
}

// GetCatalogFactory returns the catalog factory
func (c *Container) GetCatalogFactory() api.CatalogFactory {
	return c.catalogFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// GetLoggerFactory returns the logger factory
func (c *Container) GetLoggerFactory() LoggerFactory {
	return c.loggerFactory
}

// SetCatalogFactory allows overriding the catalog factory (for testing)
func (c *Container) SetCatalogFactory(factory api.CatalogFactory) {
	c.catalogFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// SetLoggerFactory allows overriding the logger factory (for testing)
func (c *Container) SetLoggerFactory(factory LoggerFactory) {
	c.loggerFactory = factory
}
