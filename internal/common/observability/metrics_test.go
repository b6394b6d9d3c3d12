// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"

	"recruitment-portal/internal/common/logger"
)

func TestObservability_RecordsWithoutPanicking(t *testing.T) {
	obs := New("test-service", logger.NewTestLogger(t))
	defer obs.Shutdown()

	ctx, span := obs.StartSpan(context.Background(), "job", attribute.String("task_type", "approve-application"))
	assert.NotNil(t, span)
	obs.RecordJobProcessed(ctx, "approve-application", "completed")
	obs.RecordJobDuration(ctx, "approve-application", 15*time.Millisecond, "completed")
	span.End()
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	var obs Observability
	ctx, span := obs.StartSpan(context.Background(), "noop")
	obs.RecordJobProcessed(ctx, "x", "failed")
	obs.RecordJobDuration(ctx, "x", time.Second, "failed")
	span.End()
	obs.Shutdown()
}
