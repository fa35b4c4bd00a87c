package config

import (
	"fmt"
	"strings"
	"time"
)

type AuthConfig struct {
	TokenTTL   time.Duration `koanf:"tokenTtl"`
	BcryptCost int           `koanf:"bcryptCost"`
}

// String returns a string representation of the auth configuration.
func (c *AuthConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  tokenTtl: %s\n", c.TokenTTL))
	b.WriteString(fmt.Sprintf("  bcryptCost: %d\n", c.BcryptCost))
	return b.String()
}

func (c *AuthConfig) Validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth token TTL is not configured")
	}
	if c.BcryptCost < 0 || c.BcryptCost > 31 {
		return fmt.Errorf("invalid bcrypt cost: %d", c.BcryptCost)
	}
	return nil
}
