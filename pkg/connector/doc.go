// Package connector groups the engine-facing connector packages.
//
//   - core: the capability interfaces the engine calls (Metadata, SplitManager,
//     PageSourceProvider, PageSinkProvider) and the handles passed between them.
//     Handles are plain data and survive a JSON round trip, so splits can be shipped to
//     remote workers.
//
//   - registry: named connector factories. Connectors register themselves in init.
//
//   - arrowflight: the Arrow Flight connector, registered as "arrow-flight".
//
// A connector is usually obtained by name:
//
//	import _ "github.com/ajitpratap0/flightbridge/pkg/connector/arrowflight"
//
//	conn, err := registry.Create("arrow-flight", cfg, logger)
package connector
