package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. FLIGHTBRIDGE_SERVER_PORT or
// FLIGHTBRIDGE_TLS_CA_PATH
const EnvPrefix = "FLIGHTBRIDGE"

// Load reads a YAML configuration file, applies defaults and environment overrides,
// and validates the result. An empty path loads defaults and environment only.
func Load(filePath string) (*FlightConfig, error) {
	v := newViper()

	if filePath != "" {
		data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		content := substituteEnvVars(string(data))
		if err := v.ReadConfig(bytes.NewReader([]byte(content))); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg := &FlightConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes a configuration to a YAML file
func Save(filePath string, cfg *FlightConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// newViper registers every key with its default so that AutomaticEnv can see it
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := NewFlightConfig()
	v.SetDefault("server_address", d.ServerAddress)
	v.SetDefault("server_port", d.ServerPort)
	v.SetDefault("location_provider_type", string(d.LocationProviderType))
	v.SetDefault("max_buffer_size", d.MaxBufferSize)
	v.SetDefault("max_page_rows", d.MaxPageRows)
	v.SetDefault("write_compression", d.WriteCompression)
	v.SetDefault("tls.ca_path", d.TLS.CAPath)
	v.SetDefault("tls.server_name", d.TLS.ServerName)
	v.SetDefault("tls.skip_verify", d.TLS.SkipVerify)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.listen_address", d.Metrics.ListenAddress)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	return v
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
