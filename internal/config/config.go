package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Vision services
	RecognizerURL     string        `envconfig:"RECOGNIZER_URL" required:"true"`
	LivenessCheckURL  string        `envconfig:"LIVENESS_CHECK" default:"disable"`
	LivenessThreshold float64       `envconfig:"LIVENESS_THRESHOLD" default:"0.8"`
	GroupSyncURL      string        `envconfig:"GROUP_SYNC_URL" required:"true"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	// Message bus
	MQTTBroker          string `envconfig:"MQTT_BROKER" default:"localhost:1883"`
	MQTTClientID        string `envconfig:"MQTT_CLIENT_ID" default:"facegate"`
	MQTTDetectTopic     string `envconfig:"MQTT_DETECT_TOPIC" default:"faces/detected"`
	MQTTRecognizedTopic string `envconfig:"MQTT_RECOGNIZED_TOPIC" default:"faces/recognized"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
