/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/store"
)

// Auto asks for a generated value.
const Auto = "auto"

// Config represents the cnet configuration
type Config struct {
	Write   Write   `yaml:"write"`
	Catalog Catalog `yaml:"catalog"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Write holds the defaults applied when writing a control network
type Write struct {
	Version         int    `yaml:"version"`
	HeaderStartByte int64  `yaml:"header_start_byte"`
	NetworkID       string `yaml:"network_id"`
	TargetName      string `yaml:"target_name"`
	Description     string `yaml:"description"`
	UserName        string `yaml:"user_name"`
	PointIDPrefix   string `yaml:"point_id_prefix,omitempty"`
	PointIDSuffix   string `yaml:"point_id_suffix,omitempty"`
}

// Catalog locates the pebble catalog of ingested networks
type Catalog struct {
	DataDir string `yaml:"data_dir"`
}

// Server contains REST API configuration
type Server struct {
	Port   int    `yaml:"port"`
	Bind   string `yaml:"bind"`
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Write: Write{
			Version:         int(schema.DefaultVersion),
			HeaderStartByte: store.DefaultHeaderStartByte,
			NetworkID:       Auto,
			TargetName:      store.None,
			Description:     store.None,
			UserName:        store.None,
		},
		Catalog: Catalog{
			DataDir: "./catalog",
		},
		Server: Server{
			Port:   9200,
			Bind:   "127.0.0.1",
			APIKey: Auto,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// WriteOptions turns the write section into store options. An auto network
// id becomes a new KSUID.
func (w Write) WriteOptions() (store.WriteOptions, error) {
	v, err := schema.ParseVersion(int64(w.Version))
	if err != nil {
		return store.WriteOptions{}, err
	}
	opts := store.WriteOptions{
		Version:         v,
		HeaderStartByte: w.HeaderStartByte,
		NetworkID:       w.NetworkID,
		TargetName:      w.TargetName,
		Description:     w.Description,
		UserName:        w.UserName,
		PointIDPrefix:   w.PointIDPrefix,
		PointIDSuffix:   w.PointIDSuffix,
	}
	if opts.NetworkID == Auto {
		opts.NetworkID = ksuid.New().String()
	}
	return opts, nil
}

// LoadConfig reads the file at configPath over the defaults, so keys the
// file leaves out keep their default values, and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return config, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if _, verr := schema.ParseVersion(int64(c.Write.Version)); verr != nil {
		err = multierr.Append(err, fmt.Errorf("write.version: %w", verr))
	}
	if c.Write.HeaderStartByte <= 0 {
		err = multierr.Append(err, fmt.Errorf("write.header_start_byte must be positive, got %d", c.Write.HeaderStartByte))
	}
	if c.Catalog.DataDir == "" {
		err = multierr.Append(err, errors.New("catalog.data_dir is empty"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, lerr := zapcore.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("logging.level: %w", lerr))
	}
	return err
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a new configuration with a generated API key
func BootstrapConfig(configPath string, catalogDir string) (*Config, error) {
	config := DefaultConfig()
	if catalogDir != "" {
		config.Catalog.DataDir = catalogDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./cnet.yaml"
	}
	return filepath.Join(dir, "cnet", "config.yaml")
}

// ConfigExists reports whether a file is present at configPath
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return err == nil
}
