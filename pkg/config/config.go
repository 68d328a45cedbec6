// Package config holds the Arrow Flight connector configuration.
//
// The configuration is organized into sections:
//   - Server: where the Flight service lives and how to reach it
//   - Buffers: page and batch size limits for the read and write paths
//   - Logging, Metrics, Tracing: observability switches
//
// Example usage:
//
//	cfg := config.NewFlightConfig()
//	cfg.ServerAddress = "flight.internal"
//	cfg.ServerPort = 8815
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// LocationProviderType selects how connection locations are built
type LocationProviderType string

const (
	LocationProviderInsecure LocationProviderType = "insecure"
	LocationProviderTLS      LocationProviderType = "tls"
)

// Compression codecs accepted for DoPut record batches
const (
	CompressionNone = "none"
	CompressionLZ4  = "lz4"
	CompressionZstd = "zstd"
)

// DefaultMaxBufferSize is the write path flush threshold
const DefaultMaxBufferSize = "16MiB"

// DefaultMaxPageRows caps the rows of a page returned by the read path
const DefaultMaxPageRows = 1024

// FlightConfig is the connector configuration
type FlightConfig struct {
	// ServerAddress is the Flight service host name (flight-server-url)
	ServerAddress string `yaml:"server_address" json:"server_address" mapstructure:"server_address"`
	// ServerPort is the Flight service port (flight-server-port)
	ServerPort int `yaml:"server_port" json:"server_port" mapstructure:"server_port"`
	// LocationProviderType is insecure (default) or tls
	LocationProviderType LocationProviderType `yaml:"location_provider_type" json:"location_provider_type" mapstructure:"location_provider_type"`
	// MaxBufferSize is the byte-size threshold after which buffered writes are flushed
	MaxBufferSize string `yaml:"max_buffer_size" json:"max_buffer_size" mapstructure:"max_buffer_size"`
	// MaxPageRows caps the rows of each page produced by a scan
	MaxPageRows int `yaml:"max_page_rows" json:"max_page_rows" mapstructure:"max_page_rows"`
	// WriteCompression compresses IPC bodies sent with DoPut (none, lz4, zstd)
	WriteCompression string `yaml:"write_compression" json:"write_compression" mapstructure:"write_compression"`

	TLS     TLSConfig     `yaml:"tls" json:"tls" mapstructure:"tls"`
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing" mapstructure:"tracing"`
}

// TLSConfig is only consulted by the tls location provider
type TLSConfig struct {
	CAPath     string `yaml:"ca_path" json:"ca_path" mapstructure:"ca_path"`
	ServerName string `yaml:"server_name" json:"server_name" mapstructure:"server_name"`
	SkipVerify bool   `yaml:"skip_verify" json:"skip_verify" mapstructure:"skip_verify"`
}

// LoggingConfig mirrors logger.Config
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" json:"development" mapstructure:"development"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	ListenAddress string `yaml:"listen_address" json:"listen_address" mapstructure:"listen_address"`
}

// TracingConfig controls otel tracing of remote calls
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate" mapstructure:"sample_rate"`
}

// NewFlightConfig returns a configuration with defaults. ServerAddress and ServerPort
// have no default and must be set.
func NewFlightConfig() *FlightConfig {
	return &FlightConfig{
		LocationProviderType: LocationProviderInsecure,
		MaxBufferSize:        DefaultMaxBufferSize,
		MaxPageRows:          DefaultMaxPageRows,
		WriteCompression:     CompressionNone,
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9464",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			SampleRate: 1.0,
		},
	}
}

// Validate checks required fields and value ranges
func (c *FlightConfig) Validate() error {
	if strings.TrimSpace(c.ServerAddress) == "" {
		return fmt.Errorf("server_address is required")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port must be in range [1, 65535]: %d", c.ServerPort)
	}
	switch c.LocationProviderType {
	case LocationProviderInsecure, LocationProviderTLS:
	default:
		return fmt.Errorf("unknown location_provider_type %q", c.LocationProviderType)
	}
	limit, err := c.BufferLimit()
	if err != nil {
		return err
	}
	if limit == 0 {
		return fmt.Errorf("max_buffer_size must be positive")
	}
	if c.MaxPageRows <= 0 {
		return fmt.Errorf("max_page_rows must be positive: %d", c.MaxPageRows)
	}
	switch c.WriteCompression {
	case "", CompressionNone, CompressionLZ4, CompressionZstd:
	default:
		return fmt.Errorf("unknown write_compression %q", c.WriteCompression)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be in range [0, 1]: %v", c.Tracing.SampleRate)
	}
	return nil
}

// BufferLimit parses MaxBufferSize ("16MiB", "8MB", "1048576") into bytes
func (c *FlightConfig) BufferLimit() (int64, error) {
	size := c.MaxBufferSize
	if size == "" {
		size = DefaultMaxBufferSize
	}
	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid max_buffer_size %q: %w", c.MaxBufferSize, err)
	}
	return int64(n), nil
}

// Endpoint returns host:port of the configured server
func (c *FlightConfig) Endpoint() string {
	return fmt.Sprintf("%s:%d", c.ServerAddress, c.ServerPort)
}
