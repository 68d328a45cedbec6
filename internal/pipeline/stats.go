package pipeline

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/metrics"
)

// Stats summarizes one scan or write
type Stats struct {
	Splits        int64         `json:"splits,omitempty"`
	Pages         int64         `json:"pages"`
	Rows          int64         `json:"rows"`
	Bytes         int64         `json:"bytes"`
	Duration      time.Duration `json:"duration"`
	ThroughputRPS float64       `json:"throughput_rps"`
}

// Fields renders the stats as log fields
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("splits", s.Splits),
		zap.Int64("pages", s.Pages),
		zap.Int64("rows", s.Rows),
		zap.Int64("bytes", s.Bytes),
		zap.Duration("duration", s.Duration),
		zap.Float64("throughput_rps", s.ThroughputRPS),
	}
}

// collector accumulates stats from concurrent workers
type collector struct {
	splits atomic.Int64
	pages  atomic.Int64
	bytes  atomic.Int64
	rows   *metrics.ThroughputTracker
	start  time.Time
}

func newCollector() *collector {
	return &collector{
		rows:  metrics.NewThroughputTracker(),
		start: time.Now(),
	}
}

func (c *collector) page(p *columnar.Page) {
	c.pages.Add(1)
	c.bytes.Add(p.SizeInBytes())
	c.rows.Increment(int64(p.PositionCount()))
}

func (c *collector) snapshot() Stats {
	s := Stats{
		Splits:   c.splits.Load(),
		Pages:    c.pages.Load(),
		Rows:     c.rows.Total(),
		Bytes:    c.bytes.Load(),
		Duration: time.Since(c.start),
	}
	if s.Duration > 0 {
		s.ThroughputRPS = float64(s.Rows) / s.Duration.Seconds()
	}
	return s
}
