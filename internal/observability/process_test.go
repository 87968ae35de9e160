package observability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		uptime time.Duration
		want   string
	}{
		{42 * time.Second, "42с"},
		{3*time.Minute + 5*time.Second, "3м 5с"},
		{2*time.Hour + time.Minute, "2ч 1м 0с"},
		{26*time.Hour + 30*time.Minute + time.Second, "1д 2ч 30м 1с"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatUptime(tc.uptime))
	}
}

func TestProcessStatsSample(t *testing.T) {
	ps, err := NewProcessStats()
	require.NoError(t, err)

	snap, err := ps.Sample()
	require.NoError(t, err)
	assert.Positive(t, snap.Goroutines)
	assert.Positive(t, snap.RSSMB)
	assert.GreaterOrEqual(t, snap.CPUPercent, 0.0)
}

func TestInitTelemetryShutdown(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), TelemetryOptions{
		ServiceName: "blockworld-test",
		RunID:       uuid.NewString(),
		Endpoint:    "localhost:4318",
		Insecure:    true,
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTelemetrySampler(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tc := range cases {
		desc := TelemetryOptions{SampleRatio: tc.ratio}.sampler().Description()
		assert.Contains(t, desc, tc.want, "доля %v", tc.ratio)
		assert.Contains(t, desc, "ParentBased", "решение родителя учитывается")
	}
}

func TestTelemetryExporterOptions(t *testing.T) {
	assert.Empty(t, TelemetryOptions{}.exporterOptions())
	assert.Len(t, TelemetryOptions{Endpoint: "collector:4318", Insecure: true}.exporterOptions(), 2)
}
