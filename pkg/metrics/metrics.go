// Package metrics exposes Prometheus collectors for the Arrow Flight connector.
//
// # Overview
//
// Collectors are registered on the default registry at init:
//   - read path: pages and rows produced per table
//   - write path: rows written, flushes and flushed bytes per table
//   - remote calls: latency per Flight method and outcome
//   - resources: open Flight clients and bytes held by the shared allocator
//
// # Basic Usage
//
//	metrics.RowsRead.WithLabelValues("orders").Add(float64(page.PositionCount()))
//
//	timer := metrics.NewTimer("GetFlightInfo")
//	info, err := client.GetFlightInfo(ctx, name)
//	timer.ObserveRemoteCall(err)
//
// Serve exposes everything on /metrics for the CLI's --metrics-address.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PagesRead counts engine pages produced by page sources.
	// Labels: table
	PagesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightbridge_pages_read_total",
			Help: "Total number of engine pages produced from remote batches",
		},
		[]string{"table"},
	)

	// RowsRead counts rows produced by page sources.
	// Labels: table
	RowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightbridge_rows_read_total",
			Help: "Total number of rows read from remote batches",
		},
		[]string{"table"},
	)

	// RowsWritten counts rows accepted by page sinks.
	// Labels: table
	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightbridge_rows_written_total",
			Help: "Total number of rows appended to page sinks",
		},
		[]string{"table"},
	)

	// Flushes counts record batches sent to the remote service.
	// Labels: table
	Flushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightbridge_flushes_total",
			Help: "Total number of buffered batches flushed to the remote service",
		},
		[]string{"table"},
	)

	// FlushBytes sums the estimated size of flushed buffers.
	// Labels: table
	FlushBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightbridge_flush_bytes_total",
			Help: "Estimated bytes of engine pages flushed to the remote service",
		},
		[]string{"table"},
	)

	// RemoteCallDuration tracks Flight RPC latency in seconds.
	// Labels: method (ListFlights/GetFlightInfo/DoGet/DoPut), status (ok/error)
	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "flightbridge_remote_call_duration_seconds",
			Help: "Latency of Arrow Flight calls in seconds",
			Buckets: []float64{
				0.001, // 1ms - local service
				0.005,
				0.025,
				0.1, // 100ms - remote metadata
				0.5,
				2.5,
				10, // long streams
			},
		},
		[]string{"method", "status"},
	)

	// ActiveClients tracks open Flight clients
	ActiveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flightbridge_active_clients",
			Help: "Number of open Arrow Flight clients",
		},
	)

	// AllocatorBytes tracks bytes held by the shared columnar allocator
	AllocatorBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flightbridge_allocator_bytes",
			Help: "Bytes currently allocated by the shared columnar allocator",
		},
	)
)

// Timer measures the duration of one remote call
type Timer struct {
	start  time.Time
	method string
}

// NewTimer creates a new timer and starts timing immediately.
// method is the Flight RPC name used as metric label.
func NewTimer(method string) *Timer {
	return &Timer{
		start:  time.Now(),
		method: method,
	}
}

// Stop returns the elapsed duration since creation
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveRemoteCall records the elapsed time under the outcome of err
func (t *Timer) ObserveRemoteCall(err error) time.Duration {
	d := t.Stop()
	status := "ok"
	if err != nil {
		status = "error"
	}
	RemoteCallDuration.WithLabelValues(t.method, status).Observe(d.Seconds())
	return d
}

// ThroughputTracker tracks rows per second of a scan or a write.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	total     int64
	lastReset time.Time
	started   time.Time
}

// NewThroughputTracker creates a tracker starting now
func NewThroughputTracker() *ThroughputTracker {
	now := time.Now()
	return &ThroughputTracker{
		lastReset: now,
		started:   now,
	}
}

// Increment adds n to the row count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
	t.total += n
}

// Total returns all rows counted since creation
func (t *ThroughputTracker) Total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// GetAndReset returns rows per second since the last reset and resets the window
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed
	t.count = 0
	t.lastReset = time.Now()
	return throughput
}

// Handler returns the /metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until the server fails
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
