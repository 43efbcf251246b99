//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the test and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0", kafka.WithClusterID("snow-drift-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// seriesPayload builds an Open-Meteo shaped request of constant weather.
func seriesPayload(t *testing.T, name string, from time.Time, hours int, tempC, precipMM, speed, dir float64) []byte {
	t.Helper()
	times := make([]string, hours)
	temp := make([]float64, hours)
	precip := make([]float64, hours)
	wind := make([]float64, hours)
	dirs := make([]float64, hours)
	for i := range hours {
		times[i] = from.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04")
		temp[i] = tempC
		precip[i] = precipMM
		wind[i] = speed
		dirs[i] = dir
	}
	data, err := json.Marshal(map[string]any{
		"location": map[string]any{"name": name, "lat": 60.6, "lon": 7.5},
		"hourly": map[string]any{
			"time":               times,
			"temperature_2m":     temp,
			"precipitation":      precip,
			"wind_speed_10m":     wind,
			"wind_direction_10m": dirs,
		},
	})
	require.NoError(t, err)
	return data
}
