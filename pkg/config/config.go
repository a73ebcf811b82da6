// Package config loads motorhub configuration from a YAML file, an optional
// .env file and MOTORHUB_* environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"motorhub/pkg/database"
	"motorhub/pkg/logging"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Sync     SyncConfig     `yaml:"sync"`
	Sources  []SourceConfig `yaml:"sources"`
}

type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	TCPEventsAddr   string        `yaml:"tcp_events_addr"`
	UDPEventsAddr   string        `yaml:"udp_events_addr"` // empty disables
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3 or postgres
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type SyncConfig struct {
	Interval time.Duration `yaml:"interval"` // 0 disables the scheduler
	Timeout  time.Duration `yaml:"timeout"`
}

// SourceConfig describes one inventory feed.
type SourceConfig struct {
	Name      string        `yaml:"name"`
	Type      string        `yaml:"type"`       // csv, json, html
	Path      string        `yaml:"path"`       // csv file or html directory
	URL       string        `yaml:"url"`        // json feed base url
	RateLimit float64       `yaml:"rate_limit"` // requests per second, json only
	Timeout   time.Duration `yaml:"timeout"`
}

func Default() Config {
	db := database.DefaultConfig()
	return Config{
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			GRPCAddr:        ":9090",
			TCPEventsAddr:   ":7070",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Driver: db.Driver, Path: db.Path},
		Log:      LogConfig{Level: "info", Format: "console"},
		Sync:     SyncConfig{Interval: 0, Timeout: 5 * time.Minute},
	}
}

// Load reads path (optional) and applies environment overrides. A missing
// .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("MOTORHUB_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.HTTPAddr, "MOTORHUB_HTTP_ADDR")
	setString(&cfg.Server.GRPCAddr, "MOTORHUB_GRPC_ADDR")
	setString(&cfg.Server.TCPEventsAddr, "MOTORHUB_TCP_EVENTS_ADDR")
	setString(&cfg.Server.UDPEventsAddr, "MOTORHUB_UDP_EVENTS_ADDR")
	setString(&cfg.Database.Driver, "MOTORHUB_DB_DRIVER")
	setString(&cfg.Database.Path, "MOTORHUB_DB_PATH")
	setString(&cfg.Database.DSN, "MOTORHUB_DB_DSN")
	setString(&cfg.Log.Level, "MOTORHUB_LOG_LEVEL")
	setString(&cfg.Log.Format, "MOTORHUB_LOG_FORMAT")

	if v := os.Getenv("MOTORHUB_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MOTORHUB_SYNC_INTERVAL: %w", err)
		}
		cfg.Sync.Interval = d
	}
	if v := os.Getenv("MOTORHUB_SYNC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MOTORHUB_SYNC_TIMEOUT: %w", err)
		}
		cfg.Sync.Timeout = d
	}
	// MOTORHUB_CSV_FEED=path adds a csv source without a config file.
	if v := os.Getenv("MOTORHUB_CSV_FEED"); v != "" {
		cfg.Sources = append(cfg.Sources, SourceConfig{Name: "csv_feed", Type: "csv", Path: v})
	}
	if v := os.Getenv("MOTORHUB_JSON_FEED"); v != "" {
		rate := 2.0
		if r := os.Getenv("MOTORHUB_JSON_FEED_RATE"); r != "" {
			parsed, err := strconv.ParseFloat(r, 64)
			if err != nil {
				return fmt.Errorf("MOTORHUB_JSON_FEED_RATE: %w", err)
			}
			rate = parsed
		}
		cfg.Sources = append(cfg.Sources, SourceConfig{Name: "json_feed", Type: "json", URL: v, RateLimit: rate})
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverSQLite, database.DriverPostgres, "sqlite", "":
	default:
		return fmt.Errorf("database.driver: unsupported %q", c.Database.Driver)
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
		switch s.Type {
		case "csv", "html":
			if s.Path == "" {
				return fmt.Errorf("sources[%d] %s: path required", i, s.Name)
			}
		case "json":
			if s.URL == "" {
				return fmt.Errorf("sources[%d] %s: url required", i, s.Name)
			}
		default:
			return fmt.Errorf("sources[%d] %s: unknown type %q", i, s.Name, s.Type)
		}
	}
	return nil
}

func (c Config) DatabaseConfig() database.Config {
	return database.Config{Driver: c.Database.Driver, Path: c.Database.Path, DSN: c.Database.DSN}
}

func (c Config) LogConfig(service string) logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, ServiceName: service}
}
