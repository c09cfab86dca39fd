package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"bizinsights/internal/infrastructure"
)

// MockDatasetState implements DatasetState
type MockDatasetState struct {
	mock.Mock
}

func (m *MockDatasetState) Loaded() bool {
	return m.Called().Bool(0)
}

func (m *MockDatasetState) Stats() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

// MockHubState implements HubState
type MockHubState struct {
	mock.Mock
}

func (m *MockHubState) ClientCount() int {
	return m.Called().Int(0)
}

func (m *MockHubState) Stats() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

func TestHealthService_Readiness(t *testing.T) {
	ctx := context.Background()

	t.Run("ready when the dataset is loaded", func(t *testing.T) {
		ds := new(MockDatasetState)
		ds.On("Loaded").Return(true)
		ds.On("Stats").Return(map[string]interface{}{"rows": 3})
		hub := new(MockHubState)
		hub.On("ClientCount").Return(2)
		hub.On("Stats").Return(map[string]interface{}{"active_clients": 2})

		hs := NewHealthService("1.2.3", "", ds, hub, nil, quietLogger())
		status := hs.ReadinessCheck(ctx)
		assert.Equal(t, "ready", status.Status)
		assert.Equal(t, "1.2.3", status.Version)

		dataset := status.Services["dataset"].(ServiceHealth)
		assert.Equal(t, "3 rows loaded", dataset.Message)
		websocket := status.Services["websocket"].(ServiceHealth)
		assert.Equal(t, "2 clients connected", websocket.Message)

		assert.NoError(t, hs.Ready(ctx))
		ds.AssertExpectations(t)
		hub.AssertExpectations(t)
	})

	t.Run("not ready without a dataset", func(t *testing.T) {
		ds := new(MockDatasetState)
		ds.On("Loaded").Return(false)
		ds.On("Stats").Return(map[string]interface{}{"loaded": false})

		hs := NewHealthService("1.2.3", "", ds, nil, nil, quietLogger())
		status := hs.ReadinessCheck(ctx)
		assert.Equal(t, "not_ready", status.Status)
		assert.ErrorIs(t, hs.Ready(ctx), ErrDatasetNotLoaded)
	})

	t.Run("nil dataset", func(t *testing.T) {
		hs := NewHealthService("1.2.3", "", nil, nil, nil, nil)
		assert.Equal(t, "not_ready", hs.ReadinessCheck(ctx).Status)
		assert.ErrorIs(t, hs.Ready(ctx), ErrDatasetNotLoaded)
	})
}

func TestHealthService_Liveness(t *testing.T) {
	ctx := context.Background()

	hs := NewHealthService("1.2.3", "2026-01-01T00:00:00Z", nil, nil, nil, quietLogger())
	assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, "alive", live.Status)
	stats, ok := live.Runtime.(infrastructure.RuntimeStats)
	require.True(t, ok)
	assert.Positive(t, stats.Goroutines)

	system, err := infrastructure.NewSystemMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	defer system.Stop()

	hs = NewHealthService("1.2.3", "", nil, nil, system, quietLogger())
	stats = hs.LivenessCheck(ctx).Runtime.(infrastructure.RuntimeStats)
	assert.Positive(t, stats.HeapAllocBytes)
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService("1.2.3", "2026-01-01T00:00:00Z", nil, nil, nil, quietLogger())

	v := hs.Version()
	assert.Equal(t, "1.2.3", v["version"])
	assert.Equal(t, "2026-01-01T00:00:00Z", v["build_time"])
	assert.Equal(t, "v1", v["api_version"])
	assert.NotEmpty(t, v["go_version"])

	detailed := hs.GetDetailedHealth(context.Background())
	assert.Contains(t, detailed, "health")
	assert.Contains(t, detailed, "readiness")
	assert.Contains(t, detailed, "liveness")

	_, ok := NewHealthService("1.2.3", "", nil, nil, nil, nil).Version()["build_time"]
	assert.False(t, ok)
}
