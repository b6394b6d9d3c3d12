package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ListsEveryWorker(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"approve-application",
		"check-attachments",
		"generate-application-form",
		"generate-exam-card",
		"notify-status-change",
		"index-application",
	}, reg.TaskTypes())

	for _, a := range reg.Activities {
		assert.NotEmpty(t, a.InputSchema, a.TaskType)
		assert.NotEmpty(t, a.ErrorCodes, a.TaskType)
	}
}

func TestLookup(t *testing.T) {
	a := MustActivity("approve-application")
	assert.Equal(t, "recruitment.application.approve", a.ID)

	reg, _ := Default()
	_, ok := reg.Lookup("no-such-task")
	assert.False(t, ok)
	assert.Panics(t, func() { MustActivity("no-such-task") })
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"2","activities":[{"taskType":"x"}]}`), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2", reg.Version)
	assert.Equal(t, []string{"x"}, reg.TaskTypes())

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
