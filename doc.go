// Package flightbridge lets a distributed query engine read and write tables that live
// behind an Apache Arrow Flight service.
//
// # Architecture
//
// The bridge is a connector: the engine calls it through the capability interfaces of
// pkg/connector/core and never sees Flight directly.
//
//   - Catalog: every single-segment flight path is a table in the "default" schema.
//     Schemas come from GetFlightInfo and are mapped to engine types.
//   - Splits: one split per flight endpoint. A split carries the endpoint locations and
//     its opaque ticket; an endpoint without locations is served by the configured service.
//   - Reads: a split is fetched with DoGet and its record batches are sliced into engine
//     pages of at most max_page_rows rows.
//   - Writes: engine pages are buffered as record batches and sent with DoPut whenever
//     the buffered estimate exceeds max_buffer_size, and once more on finish.
//
// # Quick Start
//
//	flightbridge serve --demo-rows 10000 &
//	flightbridge config init --server-address 127.0.0.1 --server-port 8815
//	flightbridge --config flightbridge.yaml tables
//	flightbridge --config flightbridge.yaml scan demo --limit 10
//
// # Packages
//
//   - pkg/connector/arrowflight: the connector
//   - pkg/clients: locations and Flight clients
//   - pkg/config: configuration loading and validation
//   - internal/pipeline: parallel scans, writes and copies driven like the engine does
//   - internal/memflight: an in-memory Flight service
package flightbridge
