package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motorhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_addr: ":8181"
database:
  driver: sqlite3
  path: /tmp/x.db
sync:
  interval: 15m
sources:
  - name: dealer_sheet
    type: csv
    path: data/dealer.csv
  - name: dealer_feed
    type: json
    url: http://localhost:9000
    rate_limit: 1.5
`), 0o644))

	t.Setenv("MOTORHUB_LOG_LEVEL", "debug")
	t.Setenv("MOTORHUB_HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.HTTPAddr)
	assert.Equal(t, ":9090", cfg.Server.GRPCAddr)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, 1.5, cfg.Sources[1].RateLimit)
}

func TestLoad_EnvFeeds(t *testing.T) {
	t.Setenv("MOTORHUB_CSV_FEED", "inventory.csv")
	t.Setenv("MOTORHUB_SYNC_INTERVAL", "1h")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "csv", cfg.Sources[0].Type)
	assert.Equal(t, time.Hour, cfg.Sync.Interval)
}

func TestLoad_BadInterval(t *testing.T) {
	t.Setenv("MOTORHUB_SYNC_INTERVAL", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"csv without path", func(c *Config) { c.Sources = []SourceConfig{{Name: "a", Type: "csv"}} }, true},
		{"json without url", func(c *Config) { c.Sources = []SourceConfig{{Name: "a", Type: "json"}} }, true},
		{"unknown type", func(c *Config) { c.Sources = []SourceConfig{{Name: "a", Type: "xml", Path: "x"}} }, true},
		{"duplicate names", func(c *Config) {
			c.Sources = []SourceConfig{{Name: "a", Type: "csv", Path: "x"}, {Name: "a", Type: "html", Path: "y"}}
		}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
