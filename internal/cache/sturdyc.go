package cache

import (
	"fmt"
	"time"

	"github.com/viccon/sturdyc"
)

// SturdycConfig holds the parameters passed to sturdyc.New.
type SturdycConfig struct {
	// Capacity is the maximum number of entries across all shards.
	Capacity int

	// Shards is the number of independently locked shards.
	Shards int

	// TTL bounds how long sturdyc keeps an entry. The cache applies its own
	// expiry on top, so this only needs to be at least the cache TTL.
	TTL time.Duration

	// EvictionPercentage is the share of a full shard evicted to make room.
	EvictionPercentage int
}

// DefaultSturdycConfig returns sizing suitable for a single API instance.
func DefaultSturdycConfig() SturdycConfig {
	return SturdycConfig{
		Capacity:           10000,
		Shards:             64,
		TTL:                DefaultTTL,
		EvictionPercentage: 10,
	}
}

// Validate checks the configuration values.
func (c SturdycConfig) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("sturdyc capacity must be greater than 0, got %d", c.Capacity)
	case c.Shards <= 0:
		return fmt.Errorf("sturdyc shards must be greater than 0, got %d", c.Shards)
	case c.TTL <= 0:
		return fmt.Errorf("sturdyc ttl must be greater than 0, got %s", c.TTL)
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return fmt.Errorf("sturdyc eviction percentage must be between 1 and 100, got %d", c.EvictionPercentage)
	}
	return nil
}

type sturdycBackend struct {
	client *sturdyc.Client[Entry]
}

// NewSturdycBackend returns a Backend stored in a sharded sturdyc client.
func NewSturdycBackend(cfg SturdycConfig) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[Entry](
		cfg.Capacity,
		cfg.Shards,
		cfg.TTL,
		cfg.EvictionPercentage,
	)
	return &sturdycBackend{client: client}, nil
}

func (s *sturdycBackend) Load(key string) (Entry, bool) {
	return s.client.Get(key)
}

func (s *sturdycBackend) Store(key string, e Entry) {
	s.client.Set(key, e)
}

func (s *sturdycBackend) Delete(key string) {
	s.client.Delete(key)
}

func (s *sturdycBackend) Keys() []string {
	return s.client.ScanKeys()
}
