package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "hourly-weather-series", cfg.KafkaSourceTopic)
	assert.Equal(t, "snow-drift-reports", cfg.KafkaSinkTopic)
	assert.Equal(t, "snow-drift-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.BatchFlushInterval)
	assert.InDelta(t, 3000.0, cfg.TransportDistance, 1e-9)
	assert.InDelta(t, 30000.0, cfg.FetchDistance, 1e-9)
	assert.InDelta(t, 0.5, cfg.Relocation, 1e-9)
	assert.Equal(t, 4, cfg.AnalysisWorkers)
	assert.Equal(t, 128, cfg.AnalysisCacheSize)
	assert.Equal(t, "json", cfg.SinkEncoding)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("DRIFT_T", "2500")
	t.Setenv("DRIFT_F", "0")
	t.Setenv("DRIFT_THETA", "1")
	t.Setenv("ANALYSIS_WORKERS", "8")
	t.Setenv("ANALYSIS_CACHE_SIZE", "0")
	t.Setenv("SINK_ENCODING", "MsgPack")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.InDelta(t, 2500.0, cfg.TransportDistance, 1e-9)
	assert.Zero(t, cfg.FetchDistance)
	assert.InDelta(t, 1.0, cfg.Relocation, 1e-9)
	assert.Equal(t, 8, cfg.AnalysisWorkers)
	assert.Zero(t, cfg.AnalysisCacheSize)
	assert.Equal(t, "msgpack", cfg.SinkEncoding)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		env   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"BATCH_SIZE", "0"},
		{"BATCH_SIZE", "9999"},
		{"BATCH_FLUSH_INTERVAL", "soon"},
		{"ANALYSIS_WORKERS", "zero"},
		{"ANALYSIS_CACHE_SIZE", "-1"},
		{"DRIFT_T", "0"},
		{"DRIFT_T", "abc"},
		{"DRIFT_F", "-10"},
		{"DRIFT_THETA", "1.5"},
		{"DRIFT_THETA", "NaN"},
		{"SINK_ENCODING", "xml"},
	}
	for _, tc := range cases {
		t.Run(tc.env+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.env, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.env)
		})
	}
}

func TestLoad_BlankBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
