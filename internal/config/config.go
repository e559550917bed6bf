// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  PostgresConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Live      LiveConfig      `mapstructure:"live"`
	Retention RetentionConfig `mapstructure:"retention"`
	Query     QueryConfig     `mapstructure:"query"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MQTTConfig configures the upstream broker connection. ReconnectInterval is
// the fixed retry period while the broker is unreachable.
type MQTTConfig struct {
	BrokerURL         string        `mapstructure:"broker_url"`
	ClientID          string        `mapstructure:"client_id"`
	TopicFilter       string        `mapstructure:"topic_filter"`
	QoS               byte          `mapstructure:"qos"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	DefaultDeviceID   string        `mapstructure:"default_device_id"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	KeepAlive         time.Duration `mapstructure:"keep_alive"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
}

// LiveConfig configures the WebSocket fan-out channel.
type LiveConfig struct {
	SendBuffer int           `mapstructure:"send_buffer"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	MaxMsgSize int64         `mapstructure:"max_msg_size"`
	QueueSize  int           `mapstructure:"queue_size"`
}

type RetentionConfig struct {
	MaxAge        time.Duration `mapstructure:"max_age"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type QueryConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("TELEMHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "telemhub")
	viper.SetDefault("database.dbname", "telemetry")
	viper.SetDefault("database.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	// MQTT defaults
	viper.SetDefault("mqtt.broker_url", "tcp://localhost:1883")
	viper.SetDefault("mqtt.client_id", "telemhub")
	viper.SetDefault("mqtt.topic_filter", "sensors/+/telemetry")
	viper.SetDefault("mqtt.qos", 0)
	viper.SetDefault("mqtt.default_device_id", "unknown")
	viper.SetDefault("mqtt.connect_timeout", "10s")
	viper.SetDefault("mqtt.keep_alive", "30s")
	viper.SetDefault("mqtt.reconnect_interval", "5s")

	// Live channel defaults
	viper.SetDefault("live.send_buffer", 32)
	viper.SetDefault("live.write_wait", "10s")
	viper.SetDefault("live.pong_wait", "60s")
	viper.SetDefault("live.ping_period", "54s")
	viper.SetDefault("live.max_msg_size", 1024)
	viper.SetDefault("live.queue_size", 256)

	// Retention defaults: keep one year of readings, sweep hourly
	viper.SetDefault("retention.max_age", "8760h")
	viper.SetDefault("retention.sweep_interval", "1h")

	// Query defaults
	viper.SetDefault("query.timeout", "30s")
}

func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.MQTT.BrokerURL == "" {
		return fmt.Errorf("mqtt broker URL is required")
	}
	if config.MQTT.TopicFilter == "" {
		return fmt.Errorf("mqtt topic filter is required")
	}
	if config.Live.SendBuffer <= 0 {
		return fmt.Errorf("live send buffer must be positive")
	}
	if config.Live.PingPeriod >= config.Live.PongWait {
		return fmt.Errorf("live ping period must be shorter than pong wait")
	}
	return nil
}
