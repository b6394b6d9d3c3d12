// internal/workers/communication/notify-status-change/config.go
package notifystatuschange

import (
	"fmt"
	"time"

	"recruitment-portal/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	PortalURL    string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   false,
	}
}

// ConfigFrom copies the channel switches out of the notifications section.
func ConfigFrom(n config.NotificationConfig, portalURL string) *Config {
	cfg := DefaultConfig()
	cfg.EmailEnabled = n.EmailEnabled
	cfg.SMSEnabled = n.SMSEnabled
	cfg.PortalURL = portalURL
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
