package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flightbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server_address: localhost\nserver_port: 8815\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.ServerAddress)
	assert.Equal(t, 8815, cfg.ServerPort)
	assert.Equal(t, LocationProviderInsecure, cfg.LocationProviderType)
	assert.Equal(t, DefaultMaxPageRows, cfg.MaxPageRows)
	assert.Equal(t, "info", cfg.Logging.Level)

	limit, err := cfg.BufferLimit()
	require.NoError(t, err)
	assert.Equal(t, int64(16*1024*1024), limit)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server_address: ${FLIGHT_HOST}\nserver_port: 8815\ntls:\n  server_name: a\n")
	t.Setenv("FLIGHT_HOST", "flight.internal")
	t.Setenv("FLIGHTBRIDGE_SERVER_PORT", "9000")
	t.Setenv("FLIGHTBRIDGE_TLS_SERVER_NAME", "b")
	t.Setenv("FLIGHTBRIDGE_MAX_BUFFER_SIZE", "8MB")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "flight.internal", cfg.ServerAddress)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "b", cfg.TLS.ServerName)

	limit, err := cfg.BufferLimit()
	require.NoError(t, err)
	assert.Equal(t, int64(8_000_000), limit)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing address", "server_port: 8815\n"},
		{"bad port", "server_address: h\nserver_port: 70000\n"},
		{"bad provider", "server_address: h\nserver_port: 1\nlocation_provider_type: quic\n"},
		{"bad buffer", "server_address: h\nserver_port: 1\nmax_buffer_size: lots\n"},
		{"bad compression", "server_address: h\nserver_port: 1\nwrite_compression: gzip\n"},
		{"bad page rows", "server_address: h\nserver_port: 1\nmax_page_rows: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	cfg := NewFlightConfig()
	cfg.ServerAddress = "localhost"
	cfg.ServerPort = 8815
	cfg.LocationProviderType = LocationProviderTLS
	cfg.TLS.CAPath = "/etc/ca.pem"
	cfg.WriteCompression = CompressionZstd

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEndpoint(t *testing.T) {
	cfg := NewFlightConfig()
	cfg.ServerAddress = "localhost"
	cfg.ServerPort = 8815
	assert.Equal(t, "localhost:8815", cfg.Endpoint())
}
