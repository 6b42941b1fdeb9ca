package redis

import "time"

// Config holds Redis connection settings for the cache store.
type Config struct {
	Addr     string
	Password string
	DB       int

	// DialTimeout bounds connection establishment; Read/WriteTimeout bound
	// socket operations. A timed-out operation is treated as a connection
	// error and degrades to a cache miss.
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	PoolSize     int
	MinIdleConns int

	// ScanBatch is the COUNT hint and DEL batch size used by
	// pattern-based deletes.
	ScanBatch int
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		ScanBatch:    100,
	}
}

// withDefaults fills zero-valued fields with defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.PoolSize == 0 {
		c.PoolSize = def.PoolSize
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = def.MinIdleConns
	}
	if c.ScanBatch == 0 {
		c.ScanBatch = def.ScanBatch
	}
	return c
}
