package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "loads with all required vars",
			envVars: map[string]string{
				"PORT":               "8080",
				"ENV":                "production",
				"DATABASE_URL":       "postgres://localhost/test",
				"RECOGNIZER_URL":     "http://recognizer:5000",
				"GROUP_SYNC_URL":     "http://sync:5000/groups",
				"LIVENESS_CHECK":     "http://liveness:5001",
				"LIVENESS_THRESHOLD": "0.9",
				"HTTP_TIMEOUT":       "10s",
				"MQTT_BROKER":        "broker:1883",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8080 &&
					c.Environment == "production" &&
					c.DatabaseURL == "postgres://localhost/test" &&
					c.RecognizerURL == "http://recognizer:5000" &&
					c.LivenessCheckURL == "http://liveness:5001" &&
					c.LivenessThreshold == 0.9 &&
					c.HTTPTimeout == 10*time.Second &&
					c.MQTTBroker == "broker:1883"
			},
		},
		{
			name: "uses defaults when optional vars missing",
			envVars: map[string]string{
				"DATABASE_URL":   "postgres://localhost/test",
				"RECOGNIZER_URL": "http://recognizer:5000",
				"GROUP_SYNC_URL": "http://sync:5000/groups",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 3000 &&
					c.Environment == "development" &&
					c.LivenessCheckURL == "disable" &&
					c.LivenessThreshold == 0.8 &&
					c.MQTTBroker == "localhost:1883" &&
					c.MQTTDetectTopic == "faces/detected" &&
					c.MQTTRecognizedTopic == "faces/recognized"
			},
		},
		{
			name: "fails when DATABASE_URL missing",
			envVars: map[string]string{
				"RECOGNIZER_URL": "http://recognizer:5000",
				"GROUP_SYNC_URL": "http://sync:5000/groups",
			},
			wantErr: true,
			check:   nil,
		},
		{
			name: "fails when RECOGNIZER_URL missing",
			envVars: map[string]string{
				"DATABASE_URL":   "postgres://localhost/test",
				"GROUP_SYNC_URL": "http://sync:5000/groups",
			},
			wantErr: true,
			check:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Load() config check failed, got: %+v", cfg)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"production", "production", true},
		{"development", "development", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}
