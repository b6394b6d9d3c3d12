// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
database:
  postgres:
    host: localhost
    database: recruitment
    user: portal
  redis:
    address: localhost:6379
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, int64(5*1024*1024), cfg.Ingestion.MaxBytes)
	assert.Equal(t, int64(1024*1024), cfg.Ingestion.TargetBytes)
	assert.Equal(t, 1200, cfg.Ingestion.MaxEdge)
	assert.Equal(t, 10000, cfg.Wizard.Cooldown)
	assert.Equal(t, 500, cfg.Synthesis.SettleDelay)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "applications", cfg.Database.Elasticsearch.Index)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_PG_HOST", "db.internal")

	cfg, err := LoadFromFile(writeConfig(t, `
database:
  postgres:
    host: ${TEST_PG_HOST}
    database: recruitment
    user: portal
  redis:
    address: localhost:6379
`))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing postgres host",
			body:    "database:\n  redis:\n    address: x\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name: "gcs without bucket",
			body: minimalConfig + `
storage:
  backend: gcs
`,
			wantErr: "storage.bucket is required",
		},
		{
			name: "unknown backend",
			body: minimalConfig + `
storage:
  backend: s3
`,
			wantErr: "not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DOCUMENTS_BUCKET", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
workers:
  generate-exam-card:
    enabled: true
`))
	require.NoError(t, err)

	w := GetWorkerConfig(cfg, "generate-exam-card")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "not-configured"))
	assert.Equal(t, 2*time.Second, GetDuration(2000))
}
