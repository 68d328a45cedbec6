// Package config loads and validates the connector configuration.
//
// Configuration comes from three layers, later ones winning:
//
//  1. defaults from NewFlightConfig
//  2. a YAML file, where ${VAR_NAME} is replaced by the environment value
//  3. FLIGHTBRIDGE_* environment variables, nested keys joined by "_"
//
// # Usage
//
//	cfg, err := config.Load("flightbridge.yaml")
//	if err != nil {
//	    return err
//	}
//	limit, _ := cfg.BufferLimit()
//
// A minimal file:
//
//	server_address: flight.internal
//	server_port: 8815
//	max_buffer_size: 16MiB
//
// max_buffer_size accepts humanized sizes (16MiB, 8MB) or a plain byte count.
package config
