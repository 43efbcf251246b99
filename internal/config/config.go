package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Default physical parameters; requests may override each one.
	TransportDistance float64 // T, m
	FetchDistance     float64 // F, m
	Relocation        float64 // θ

	AnalysisWorkers   int
	AnalysisCacheSize int
	SinkEncoding      string // "json" or "msgpack"
}

const maxBatchSize = 1000

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_source_topic", "hourly-weather-series")
	v.SetDefault("kafka_sink_topic", "snow-drift-reports")
	v.SetDefault("kafka_group_id", "snow-drift-etl")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("batch_size", "10")
	v.SetDefault("batch_flush_interval", "2s")
	v.SetDefault("drift_t", "3000")
	v.SetDefault("drift_f", "30000")
	v.SetDefault("drift_theta", "0.5")
	v.SetDefault("analysis_workers", "4")
	v.SetDefault("analysis_cache_size", "128")
	v.SetDefault("sink_encoding", "json")
	return v
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	v := newViper()

	shutdownTimeout, err := parsePositiveDuration(v, "shutdown_timeout")
	if err != nil {
		return nil, err
	}
	flushInterval, err := parsePositiveDuration(v, "batch_flush_interval")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseInt(v, "batch_size", 1, maxBatchSize)
	if err != nil {
		return nil, err
	}
	workers, err := parseInt(v, "analysis_workers", 1, 256)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt(v, "analysis_cache_size", 0, 1_000_000)
	if err != nil {
		return nil, err
	}

	t, err := parseFloat(v, "drift_t")
	if err != nil {
		return nil, err
	}
	f, err := parseFloat(v, "drift_f")
	if err != nil {
		return nil, err
	}
	theta, err := parseFloat(v, "drift_theta")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(v.GetString("kafka_brokers")),
		KafkaSourceTopic:   strings.TrimSpace(v.GetString("kafka_source_topic")),
		KafkaSinkTopic:     strings.TrimSpace(v.GetString("kafka_sink_topic")),
		KafkaGroupID:       v.GetString("kafka_group_id"),
		HTTPAddr:           v.GetString("http_addr"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		TransportDistance:  t,
		FetchDistance:      f,
		Relocation:         theta,
		AnalysisWorkers:    workers,
		AnalysisCacheSize:  cacheSize,
		SinkEncoding:       strings.ToLower(strings.TrimSpace(v.GetString("sink_encoding"))),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.TransportDistance <= 0 {
		return nil, errors.New("DRIFT_T must be positive")
	}
	if cfg.FetchDistance < 0 {
		return nil, errors.New("DRIFT_F must not be negative")
	}
	if cfg.Relocation < 0 || cfg.Relocation > 1 {
		return nil, errors.New("DRIFT_THETA must be within [0, 1]")
	}
	if cfg.SinkEncoding != "json" && cfg.SinkEncoding != "msgpack" {
		return nil, fmt.Errorf("SINK_ENCODING must be json or msgpack, got %q", cfg.SinkEncoding)
	}

	return cfg, nil
}

func envName(key string) string {
	return strings.ToUpper(key)
}

func parsePositiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", envName(key))
	}
	return d, nil
}

func parseInt(v *viper.Viper, key string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", envName(key), lo, hi)
	}
	return n, nil
}

func parseFloat(v *viper.Viper, key string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s: must be a finite number", envName(key))
	}
	return f, nil
}

// parseBrokers splits a comma-separated broker list, dropping blanks.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
