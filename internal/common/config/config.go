// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Ingestion     IngestionConfig         `mapstructure:"ingestion"`
	Wizard        WizardConfig            `mapstructure:"wizard"`
	Synthesis     SynthesisConfig         `mapstructure:"synthesis"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig selects the blob backend for applicant documents.
type StorageConfig struct {
	Backend       string `mapstructure:"backend"` // gcs | local
	Bucket        string `mapstructure:"bucket"`
	BaseDir       string `mapstructure:"base_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MaxRetries    int    `mapstructure:"max_retries"`
}

type IngestionConfig struct {
	MaxBytes       int64 `mapstructure:"max_bytes"`
	TargetBytes    int64 `mapstructure:"target_bytes"`
	MaxEdge        int   `mapstructure:"max_edge"`
	MinJPEGQuality int   `mapstructure:"min_jpeg_quality"`
	PreviewEdge    int   `mapstructure:"preview_edge"`
}

type WizardConfig struct {
	Cooldown         int `mapstructure:"cooldown"`           // milliseconds
	SessionTTL       int `mapstructure:"session_ttl"`        // milliseconds
	PositionCacheTTL int `mapstructure:"position_cache_ttl"` // milliseconds
}

type SynthesisConfig struct {
	OutputDir        string `mapstructure:"output_dir"`
	SettleDelay      int    `mapstructure:"settle_delay"` // milliseconds
	FontPath         string `mapstructure:"font_path"`
	VerifyURLBase    string `mapstructure:"verify_url_base"`
	OrganisationName string `mapstructure:"organisation_name"`
}

// NotificationConfig holds settings for the notify-status-change worker.
type NotificationConfig struct {
	AWSRegion    string `mapstructure:"aws_region"`
	FromEmail    string `mapstructure:"from_email"`
	EmailEnabled bool   `mapstructure:"email_enabled"`
	SMSEnabled   bool   `mapstructure:"sms_enabled"`
	SMSSenderID  string `mapstructure:"sms_sender_id"`
	PortalURL    string `mapstructure:"portal_url"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
