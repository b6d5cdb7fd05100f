package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:            "8080",
		SourceBackend:   "csv",
		SourceURL:       "https://docs.google.com/spreadsheets/d/abc/export?format=csv",
		RefreshInterval: 30 * time.Second,
		FetchTimeout:    15 * time.Second,
		MaxBodyBytes:    10 << 20,
		EventsBackend:   "none",
		TopClients:      10,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid csv backend config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid source backend",
			mutate:      func(c *Config) { c.SourceBackend = "ftp" },
			wantErr:     true,
			errorString: "invalid source backend 'ftp': must be one of [csv sheets memory]",
		},
		{
			name:        "csv backend missing url",
			mutate:      func(c *Config) { c.SourceURL = "" },
			wantErr:     true,
			errorString: "SOURCE_URL is required when using csv backend",
		},
		{
			name:        "csv backend bad scheme",
			mutate:      func(c *Config) { c.SourceURL = "file:///tmp/x.csv" },
			wantErr:     true,
			errorString: "invalid SOURCE_URL scheme 'file'",
		},
		{
			name: "memory backend needs no url",
			mutate: func(c *Config) {
				c.SourceBackend = "memory"
				c.SourceURL = ""
			},
			wantErr: false,
		},
		{
			name: "sheets backend missing id and credentials",
			mutate: func(c *Config) {
				c.SourceBackend = "sheets"
			},
			wantErr:     true,
			errorString: "Google Spreadsheet ID is required when using sheets backend",
		},
		{
			name: "sheets backend with inline credentials",
			mutate: func(c *Config) {
				c.SourceBackend = "sheets"
				c.GoogleSpreadsheetID = "abc"
				c.GoogleServiceAccountJSON = `{"type":"service_account"}`
			},
			wantErr: false,
		},
		{
			name: "sheets backend missing credentials file",
			mutate: func(c *Config) {
				c.SourceBackend = "sheets"
				c.GoogleSpreadsheetID = "abc"
				c.GoogleServiceAccountFile = "/definitely/missing.json"
			},
			wantErr:     true,
			errorString: "Google service account file does not exist",
		},
		{
			name:        "refresh interval too short",
			mutate:      func(c *Config) { c.RefreshInterval = 500 * time.Millisecond },
			wantErr:     true,
			errorString: "must be at least 1 second",
		},
		{
			name:        "refresh interval too long",
			mutate:      func(c *Config) { c.RefreshInterval = 25 * time.Hour },
			wantErr:     true,
			errorString: "must be at most 24 hours",
		},
		{
			name:        "non-positive fetch timeout",
			mutate:      func(c *Config) { c.FetchTimeout = 0 },
			wantErr:     true,
			errorString: "invalid fetch timeout",
		},
		{
			name: "amqp events with bad scheme",
			mutate: func(c *Config) {
				c.EventsBackend = "amqp"
				c.AMQPURL = "http://localhost:5672"
				c.AMQPExchange = "paydash"
			},
			wantErr:     true,
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name: "kafka events without topic",
			mutate: func(c *Config) {
				c.EventsBackend = "kafka"
				c.KafkaBrokers = []string{"localhost:9092"}
			},
			wantErr:     true,
			errorString: "Kafka topic cannot be empty",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "top clients out of range",
			mutate:      func(c *Config) { c.TopClients = 0 },
			wantErr:     true,
			errorString: "invalid top clients 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.SourceURL = ""
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid port", "SOURCE_URL is required", "invalid log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestConfig_ValidateExistingCredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := validConfig()
	cfg.SourceBackend = "sheets"
	cfg.GoogleSpreadsheetID = "abc"
	cfg.GoogleServiceAccountFile = path
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "SOURCE_BACKEND", "REFRESH_INTERVAL", "FETCH_TIMEOUT", "MAX_BODY_BYTES", "EVENTS_BACKEND", "KAFKA_BROKERS", "TOP_CLIENTS", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8080" || cfg.SourceBackend != "csv" || cfg.EventsBackend != "none" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RefreshInterval != 30*time.Second || cfg.FetchTimeout != 15*time.Second {
		t.Fatalf("unexpected durations: %v %v", cfg.RefreshInterval, cfg.FetchTimeout)
	}
	if cfg.MaxBodyBytes != 10<<20 || cfg.TopClients != 10 {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SOURCE_BACKEND", "Memory")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("TOP_CLIENTS", "not-a-number")

	cfg := Load()
	if cfg.SourceBackend != "memory" {
		t.Fatalf("backend should be lowercased, got %q", cfg.SourceBackend)
	}
	if cfg.RefreshInterval != time.Minute {
		t.Fatalf("unexpected interval %v", cfg.RefreshInterval)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.TopClients != 10 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.TopClients)
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "invalid TOP_CLIENTS 'not-a-number': must be an integer") {
		t.Fatalf("unparsable TOP_CLIENTS should be reported, got %v", err)
	}
}

func TestLoad_Durations(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Duration
		wantErr string
	}{
		{"60000", time.Minute, ""},
		{"1500", 1500 * time.Millisecond, ""},
		{"2m", 2 * time.Minute, ""},
		{"45s", 45 * time.Second, ""},
		{"soon", 30 * time.Second, "invalid REFRESH_INTERVAL 'soon'"},
		{"60000ms", time.Minute, ""},
		{"500", 500 * time.Millisecond, "must be at least 1 second"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("SOURCE_BACKEND", "memory")
			t.Setenv("REFRESH_INTERVAL", tt.value)
			cfg := Load()
			if cfg.RefreshInterval != tt.want {
				t.Fatalf("RefreshInterval = %v, want %v", cfg.RefreshInterval, tt.want)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
