// internal/workers/documents/generate-exam-card/config.go
package generateexamcard

import "time"

type Config struct {
	Timeout       time.Duration
	Organisation  string
	VerifyURLBase string
	// Concurrency bounds parallel renders in a batch.
	Concurrency int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       2 * time.Minute,
		Organisation:  "เทศบาลเมืองอุทัยธานี",
		VerifyURLBase: "https://jobs.uthaicity.go.th/verify",
		Concurrency:   4,
	}
}
