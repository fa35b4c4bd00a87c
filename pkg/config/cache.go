package config

import (
	"fmt"
	"strings"
	"time"
)

type CacheConfig struct {
	// TTL is how long a cached order-history page stays valid.
	// Entries are never invalidated early, so callers may observe
	// lists that lag reality by up to this window.
	TTL time.Duration `koanf:"ttl"`
}

// String returns a string representation of the cache configuration.
func (c *CacheConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Cache ---\n")
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	return b.String()
}

func (c *CacheConfig) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("cache TTL is not configured")
	}
	return nil
}
