package config_test

import (
	"fmt"

	"github.com/ajitpratap0/flightbridge/pkg/config"
)

// ExampleNewFlightConfig shows the defaults of a new configuration.
func ExampleNewFlightConfig() {
	cfg := config.NewFlightConfig()

	limit, _ := cfg.BufferLimit()
	fmt.Printf("Location provider: %s\n", cfg.LocationProviderType)
	fmt.Printf("Max buffer size: %d\n", limit)
	fmt.Printf("Max page rows: %d\n", cfg.MaxPageRows)

	// Output:
	// Location provider: insecure
	// Max buffer size: 16777216
	// Max page rows: 1024
}

// ExampleFlightConfig_Validate shows that the server address is required.
func ExampleFlightConfig_Validate() {
	cfg := config.NewFlightConfig()
	fmt.Println(cfg.Validate())

	cfg.ServerAddress = "localhost"
	cfg.ServerPort = 8815
	fmt.Println(cfg.Validate())

	// Output:
	// server_address is required
	// <nil>
}
