package api

import (
	"github.com/ssargent/isiscnet/pkg/schema"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PointResponse is one control point as served by the API. Field and measure
// keys are the wire field names.
type PointResponse struct {
	ID       string          `json:"id"`
	Fields   schema.Record   `json:"fields"`
	Measures []schema.Record `json:"measures"`
}

// PointListResponse is a page of point ids
type PointListResponse struct {
	Key   string   `json:"key"`
	Total int      `json:"total"`
	IDs   []string `json:"ids"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string
	// MaxUploadBytes caps the body of a network upload. Zero means
	// DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// DefaultMaxUploadBytes is the default cap on an uploaded network file.
const DefaultMaxUploadBytes = 256 << 20
