// internal/workers/documents/generate-application-form/config.go
package generateapplicationform

import "time"

type Config struct {
	Timeout      time.Duration
	Organisation string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      60 * time.Second,
		Organisation: "เทศบาลเมืองอุทัยธานี",
	}
}
