package config

import (
	"errors"
	"fmt"
)

var ErrBrokerURLRequired = errors.New("broker url is required")

// CheckURL enforces that every networked driver has an address to dial.
func (c *BrokerConfig) CheckURL() error {
	if c.Driver == "memory" || c.URL != "" {
		return nil
	}
	return fmt.Errorf("%s driver: %w", c.Driver, ErrBrokerURLRequired)
}
