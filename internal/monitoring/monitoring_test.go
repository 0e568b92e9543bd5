package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	svc := NewService("storage")
	svc.MessageConsumed("storage_group", "power_usage")
	svc.MessageFailed("storage_group", "persist")
	svc.RecordEvent("consumer.subscribed", map[string]string{"group": "storage_group"})

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pipeline_messages_consumed_total{group="storage_group",service="storage",type="power_usage"} 1`)
	assert.Contains(t, string(body), `pipeline_lifecycle_events_total{event="consumer.subscribed",service="storage"} 1`)
}

func TestNilServiceIsSafe(t *testing.T) {
	var svc *Service
	assert.NotPanics(t, func() {
		svc.EventPublished("location")
		svc.TickFinished("ok", 0.1)
		svc.WorkerRestarted("anomaly_group")
		svc.RecordEvent("x", nil)
	})
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
