// FilePath: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)

	require.Equal(t, "localhost", cfg.Database.Host)
	require.Equal(t, 5432, cfg.Database.Port)

	require.Equal(t, "tcp://localhost:1883", cfg.MQTT.BrokerURL)
	require.Equal(t, "sensors/+/telemetry", cfg.MQTT.TopicFilter)
	require.Equal(t, 5*time.Second, cfg.MQTT.ReconnectInterval)

	require.Equal(t, 60*time.Second, cfg.Live.PongWait)
	require.Less(t, cfg.Live.PingPeriod, cfg.Live.PongWait)

	require.Equal(t, 8760*time.Hour, cfg.Retention.MaxAge)
	require.Equal(t, time.Hour, cfg.Retention.SweepInterval)
}

func TestLoadHonorsEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("TELEMHUB_SERVER__PORT", "9090")
	t.Setenv("TELEMHUB_MQTT__BROKER_URL", "tcp://broker.example.com:1883")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "tcp://broker.example.com:1883", cfg.MQTT.BrokerURL)
}

func TestValidateRejectsBadPingPeriod(t *testing.T) {
	cfg := &Config{
		Database: PostgresConfig{Host: "localhost"},
		MQTT: MQTTConfig{
			BrokerURL:   "tcp://localhost:1883",
			TopicFilter: "sensors/+/telemetry",
		},
		Live: LiveConfig{
			SendBuffer: 32,
			PingPeriod: time.Minute,
			PongWait:   time.Minute,
		},
	}
	require.Error(t, validateConfig(cfg))

	cfg.Live.PingPeriod = 54 * time.Second
	require.NoError(t, validateConfig(cfg))
}

func TestValidateRejectsZeroSendBuffer(t *testing.T) {
	cfg := &Config{
		Database: PostgresConfig{Host: "localhost"},
		MQTT: MQTTConfig{
			BrokerURL:   "tcp://localhost:1883",
			TopicFilter: "sensors/+/telemetry",
		},
		Live: LiveConfig{
			PingPeriod: 54 * time.Second,
			PongWait:   time.Minute,
		},
	}
	// A zero buffer would make the greeting send block forever.
	require.Error(t, validateConfig(cfg))

	cfg.Live.SendBuffer = 1
	require.NoError(t, validateConfig(cfg))
}
