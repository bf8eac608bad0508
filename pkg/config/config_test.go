package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/schema"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 2, config.Write.Version)
	assert.Equal(t, int64(65536), config.Write.HeaderStartByte)
	assert.Equal(t, "auto", config.Write.NetworkID)
	assert.Equal(t, "None", config.Write.TargetName)
	assert.Equal(t, "./catalog", config.Catalog.DataDir)
	assert.Equal(t, 9200, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Bind)
	assert.Equal(t, "auto", config.Server.APIKey)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestWrite_WriteOptions(t *testing.T) {
	t.Run("auto network id", func(t *testing.T) {
		opts, err := DefaultConfig().Write.WriteOptions()
		require.NoError(t, err)
		assert.Equal(t, schema.V2, opts.Version)
		_, err = ksuid.Parse(opts.NetworkID)
		assert.NoError(t, err)
	})

	t.Run("explicit values", func(t *testing.T) {
		w := Write{Version: 5, NetworkID: "lunar", TargetName: "Moon", PointIDPrefix: "a_"}
		opts, err := w.WriteOptions()
		require.NoError(t, err)
		assert.Equal(t, schema.V5, opts.Version)
		assert.Equal(t, "lunar", opts.NetworkID)
		assert.Equal(t, "Moon", opts.TargetName)
		assert.Equal(t, "a_", opts.PointIDPrefix)
	})

	t.Run("unsupported version", func(t *testing.T) {
		_, err := Write{Version: 3}.WriteOptions()
		assert.ErrorIs(t, err, errs.ErrUnsupportedVersion)
	})
}

func TestGenerateSecureKey(t *testing.T) {
	t.Run("generate 32 byte key", func(t *testing.T) {
		key, err := GenerateSecureKey(32)
		require.NoError(t, err)
		assert.Len(t, key, 64)

		_, err = hex.DecodeString(key)
		assert.NoError(t, err)
	})

	t.Run("generate different keys", func(t *testing.T) {
		key1, err := GenerateSecureKey(16)
		require.NoError(t, err)
		key2, err := GenerateSecureKey(16)
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		expectedConfig := &Config{
			Write: Write{
				Version:         5,
				HeaderStartByte: 131072,
				NetworkID:       "apollo",
				TargetName:      "Moon",
				Description:     "ties",
				UserName:        "me",
			},
			Catalog: Catalog{DataDir: "/custom/catalog"},
			Server:  Server{Port: 9000, Bind: "0.0.0.0", APIKey: "test-api-key"},
			Logging: Logging{Level: "debug"},
		}

		require.NoError(t, SaveConfig(expectedConfig, configPath))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("partial config keeps defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "partial.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("write:\n  target_name: Mars\n"), 0600))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, "Mars", loadedConfig.Write.TargetName)
		assert.Equal(t, 2, loadedConfig.Write.Version)
		assert.Equal(t, 9200, loadedConfig.Server.Port)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "bad version",
			mutate:  func(c *Config) { c.Write.Version = 3 },
			wantErr: []string{"write.version"},
		},
		{
			name: "every problem reported",
			mutate: func(c *Config) {
				c.Write.HeaderStartByte = 0
				c.Catalog.DataDir = ""
				c.Server.Port = 70000
				c.Logging.Level = "loud"
			},
			wantErr: []string{"write.header_start_byte", "catalog.data_dir", "server.port", "logging.level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Len(t, multierr.Errors(err), len(tt.wantErr))
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}

	t.Run("load rejects invalid values", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 0\n"), 0600))

		_, err := LoadConfig(configPath)
		assert.ErrorContains(t, err, "server.port")
	})
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := DefaultConfig()

	require.NoError(t, SaveConfig(config, configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	config, err := BootstrapConfig(configPath, "/custom/catalog")
	require.NoError(t, err)

	assert.Equal(t, "/custom/catalog", config.Catalog.DataDir)
	assert.NotEqual(t, "auto", config.Server.APIKey)
	_, err = hex.DecodeString(config.Server.APIKey)
	assert.NoError(t, err)
	assert.Equal(t, "auto", config.Write.NetworkID, "network ids are generated per write")

	assert.True(t, ConfigExists(configPath))
	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "cnet")
}

func TestConfigYAMLMarshalling(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, string(data), "network_id: auto")
	assert.Contains(t, string(data), "header_start_byte: 65536")
	assert.NotContains(t, string(data), "point_id_prefix")

	var unmarshalled Config
	require.NoError(t, yaml.Unmarshal(data, &unmarshalled))
	assert.Equal(t, DefaultConfig(), &unmarshalled)
}
