package redis

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// MaxTxRetries bounds how often a unit of work is replayed after a
	// watched key changed underneath it
	MaxTxRetries int

	// TransferHistoryLen caps the per-account transfer index
	TransferHistoryLen int64
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:                "redis://localhost:6379",
		PoolSize:           10,
		MinIdleConns:       2,
		MaxTxRetries:       5,
		TransferHistoryLen: 1000,
	}
}
