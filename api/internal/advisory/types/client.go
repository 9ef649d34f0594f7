package types

import (
	"fmt"
	"time"
)

// ModelClientConfig is injected into a model client at construction.
type ModelClientConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
}

// String omits the API key.
func (c ModelClientConfig) String() string {
	return fmt.Sprintf("%s/%s timeout=%s", c.Provider, c.Model, c.Timeout)
}

// GoString keeps %#v from printing the API key.
func (c ModelClientConfig) GoString() string { return c.String() }
