package pipeline

// Config controls split parallelism
type Config struct {
	// Parallelism is the number of splits scanned at once
	Parallelism int
	// SplitBatchSize is how many splits are requested from a split source per call
	SplitBatchSize int
	// PageBuffer is the number of scanned pages queued ahead of the writer in Copy
	PageBuffer int
}

// DefaultConfig returns the defaults used by the CLI
func DefaultConfig() *Config {
	return &Config{
		Parallelism:    4,
		SplitBatchSize: 16,
		PageBuffer:     8,
	}
}

func (c *Config) withDefaults() *Config {
	out := *DefaultConfig()
	if c == nil {
		return &out
	}
	if c.Parallelism > 0 {
		out.Parallelism = c.Parallelism
	}
	if c.SplitBatchSize > 0 {
		out.SplitBatchSize = c.SplitBatchSize
	}
	if c.PageBuffer > 0 {
		out.PageBuffer = c.PageBuffer
	}
	return &out
}
