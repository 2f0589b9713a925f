package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
search:
  api_key: secret
  engine_id: cx-123
  num_results: 5
  timeout_seconds: 8
  requests_per_sec: 2
store:
  backend: postgres
  dsn: postgres://leads:pw@localhost:5432/leads
  table: leads_v2
  max_conns: 4
queries:
  - '"low voltage RFP" "New York City"'
  - '"access control bid" "New York City"'
notify:
  host: smtp.example.com
  port: 2525
  from: agent@example.com
  to: ["me@example.com", "omar@example.com"]
archive:
  backend: local
  base_dir: /tmp/leadscan
run:
  timeout_seconds: 120
  concurrency: 2
logging:
  development: false
ops:
  listen_addr: ":9090"
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Search.APIKey != "secret" || cfg.Search.EngineID != "cx-123" {
		t.Fatalf("expected search credentials to load, got %+v", cfg.Search)
	}
	if cfg.Search.NumResults != 5 {
		t.Fatalf("expected 5 results per query, got %d", cfg.Search.NumResults)
	}
	if cfg.Store.Table != "leads_v2" || cfg.Store.MaxConns != 4 {
		t.Fatalf("expected store overrides to apply: %+v", cfg.Store)
	}
	if len(cfg.Queries) != 2 || !strings.Contains(cfg.Queries[0], "low voltage RFP") {
		t.Fatalf("expected query list to load: %+v", cfg.Queries)
	}
	if !cfg.Notify.Enabled() || cfg.Notify.Port != 2525 || len(cfg.Notify.To) != 2 {
		t.Fatalf("expected notify config to load: %+v", cfg.Notify)
	}
	if cfg.Archive.Backend != "local" || cfg.Archive.BaseDir != "/tmp/leadscan" {
		t.Fatalf("expected archive overrides to apply: %+v", cfg.Archive)
	}
	if got := cfg.Run.Timeout(); got != 120*time.Second {
		t.Fatalf("expected run timeout 120s, got %v", got)
	}
	if cfg.Run.Concurrency != 2 {
		t.Fatalf("expected concurrency 2, got %d", cfg.Run.Concurrency)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
	if cfg.Ops.ListenAddr != ":9090" {
		t.Fatalf("expected ops listener address, got %q", cfg.Ops.ListenAddr)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
search:
  api_key: secret
  engine_id: cx-123
store:
  backend: memory
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Search.NumResults != 10 {
		t.Fatalf("expected default num_results 10, got %d", cfg.Search.NumResults)
	}
	if cfg.Store.Table != "low_voltage_leads" {
		t.Fatalf("expected default table name, got %q", cfg.Store.Table)
	}
	if cfg.Run.TimeoutSeconds != 300 || cfg.Run.Concurrency != 1 {
		t.Fatalf("expected run defaults, got %+v", cfg.Run)
	}
	if cfg.Archive.Backend != "none" {
		t.Fatalf("expected archive disabled by default, got %q", cfg.Archive.Backend)
	}
	if cfg.Notify.Enabled() {
		t.Fatal("expected notification disabled by default")
	}
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	// t.Setenv forbids t.Parallel.
	t.Setenv("LEADSCAN_SEARCH_API_KEY", "env-key")
	t.Setenv("LEADSCAN_SEARCH_ENGINE_ID", "env-cx")
	t.Setenv("LEADSCAN_STORE_BACKEND", "memory")
	t.Setenv("LEADSCAN_QUERIES", "cabling rfp,fiber bid")
	t.Setenv("LEADSCAN_NOTIFY_HOST", "smtp.example.com")
	t.Setenv("LEADSCAN_NOTIFY_FROM", "agent@example.com")
	t.Setenv("LEADSCAN_NOTIFY_TO", "me@example.com")
	t.Setenv("LEADSCAN_OPS_LISTEN_ADDR", ":9191")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Search.APIKey != "env-key" || cfg.Search.EngineID != "env-cx" {
		t.Fatalf("expected credentials from env, got %+v", cfg.Search)
	}
	if cfg.Store.Backend != "memory" {
		t.Fatalf("expected memory backend from env, got %q", cfg.Store.Backend)
	}
	if len(cfg.Queries) != 2 || cfg.Queries[1] != "fiber bid" {
		t.Fatalf("expected comma-split query list from env, got %+v", cfg.Queries)
	}
	if !cfg.Notify.Enabled() {
		t.Fatalf("expected notify enabled from env, got %+v", cfg.Notify)
	}
	if cfg.Ops.ListenAddr != ":9191" {
		t.Fatalf("expected ops listener address from env, got %q", cfg.Ops.ListenAddr)
	}
	if cfg.Search.NumResults != 10 {
		t.Fatalf("expected defaults to survive env loading, got %d", cfg.Search.NumResults)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
search:
  api_key: file-key
  engine_id: cx-123
store:
  backend: memory
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("LEADSCAN_SEARCH_API_KEY", "env-wins")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Search.APIKey != "env-wins" {
		t.Fatalf("expected env to override file, got %q", cfg.Search.APIKey)
	}
	if cfg.Search.EngineID != "cx-123" {
		t.Fatalf("expected untouched file value to survive, got %q", cfg.Search.EngineID)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Search: SearchConfig{
				APIKey:         "k",
				EngineID:       "cx",
				NumResults:     10,
				TimeoutSeconds: 10,
			},
			Store: StoreConfig{Backend: "memory"},
			Run:   RunConfig{TimeoutSeconds: 300, Concurrency: 1},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.Search.APIKey = "" },
			wantErr: "search.api_key",
		},
		{
			name:    "missing engine id",
			mutate:  func(c *Config) { c.Search.EngineID = "" },
			wantErr: "search.engine_id",
		},
		{
			name:    "too many results",
			mutate:  func(c *Config) { c.Search.NumResults = 50 },
			wantErr: "num_results",
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.Store.Backend = "postgres"
				c.Store.DSN = ""
			},
			wantErr: "store.dsn",
		},
		{
			name:    "unknown store backend",
			mutate:  func(c *Config) { c.Store.Backend = "dynamo" },
			wantErr: "store.backend",
		},
		{
			name: "gcs archive without bucket",
			mutate: func(c *Config) {
				c.Archive.Backend = "gcs"
			},
			wantErr: "archive.bucket",
		},
		{
			name: "three recipients",
			mutate: func(c *Config) {
				c.Notify.To = []string{"a@x.com", "b@x.com", "c@x.com"}
			},
			wantErr: "two recipients",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Run.Concurrency = 0 },
			wantErr: "run.concurrency",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
