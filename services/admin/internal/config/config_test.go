package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.True(t, cfg.AutoRefresh)
	assert.False(t, cfg.PprofEnabled)
	assert.Equal(t, []string{"127.0.0.1/32", "::1/128"}, cfg.PprofAllowedCIDRs)
	assert.Equal(t, "admin-dashboard", cfg.KafkaGroupID)
	assert.Equal(t, time.Hour, cfg.KafkaDedupeTTL)
	assert.Equal(t, "admin", cfg.Tracing.ServiceName)
	assert.Equal(t, 15*time.Second, cfg.APITimeout())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ADMIN_REFRESH_INTERVAL", "30s")
	t.Setenv("ADMIN_AUTO_REFRESH", "false")
	t.Setenv("ADMIN_PPROF_ENABLED", "true")
	t.Setenv("ADMIN_PPROF_ALLOWED_CIDRS", "10.0.0.0/8")
	t.Setenv("ADMIN_KAFKA_ENABLED", "true")
	t.Setenv("ADMIN_KAFKA_GROUP_ID", "ops")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.False(t, cfg.AutoRefresh)
	assert.True(t, cfg.PprofEnabled)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.PprofAllowedCIDRs)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "ops", cfg.KafkaGroupID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"port", "ADMIN_HTTP_PORT", "70000", "invalid HTTP port"},
		{"url", "ADMIN_FEEDBACK_API_URL", "not a url", "FEEDBACK_API_URL"},
		{"interval", "ADMIN_REFRESH_INTERVAL", "100ms", "REFRESH_INTERVAL"},
		{"cidr", "ADMIN_PPROF_ALLOWED_CIDRS", "10.0.0.1", "PPROF_ALLOWED_CIDRS"},
		{"ratio", "ADMIN_CB_FAILURE_RATIO", "1.5", "CB_FAILURE_RATIO"},
		{"sample rate", "ADMIN_OTEL_SAMPLE_RATE", "2", "OTEL_SAMPLE_RATE"},
		{"duration syntax", "ADMIN_REFRESH_INTERVAL", "often", "load admin config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
