// Package config loads and validates leadscan configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Search  SearchConfig  `mapstructure:"search"`
	Store   StoreConfig   `mapstructure:"store"`
	Queries []string      `mapstructure:"queries"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Publish PublishConfig `mapstructure:"publish"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Run     RunConfig     `mapstructure:"run"`
	Logging LoggingConfig `mapstructure:"logging"`
	Ops     OpsConfig     `mapstructure:"ops"`
}

// SearchConfig holds Google Custom Search credentials and limits.
type SearchConfig struct {
	APIKey         string `mapstructure:"api_key"`
	EngineID       string `mapstructure:"engine_id"`
	NumResults     int    `mapstructure:"num_results"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RequestsPerSec int    `mapstructure:"requests_per_sec"`
}

// StoreConfig controls access to the lead table.
type StoreConfig struct {
	// Backend selects the store implementation: "postgres" or "memory".
	Backend  string `mapstructure:"backend"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// NotifyConfig configures the SMTP summary report.
type NotifyConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// Enabled reports whether a summary email should be sent.
func (n NotifyConfig) Enabled() bool {
	return n.Host != "" && n.From != "" && len(n.To) > 0
}

// PublishConfig holds metadata for Pub/Sub summary events.
type PublishConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Enabled reports whether summary events should be published.
func (p PublishConfig) Enabled() bool {
	return p.ProjectID != "" && p.TopicName != ""
}

// ArchiveConfig selects the raw-response archive backend.
type ArchiveConfig struct {
	// Backend is "none", "local" or "gcs".
	Backend string `mapstructure:"backend"`
	BaseDir string `mapstructure:"base_dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// FilterConfig overrides the relevance filter term lists. Empty slices
// fall back to the built-in defaults.
type FilterConfig struct {
	JunkDomains         []string `mapstructure:"junk_domains"`
	ImportantSuffixes   []string `mapstructure:"important_suffixes"`
	LocationKeywords    []string `mapstructure:"location_keywords"`
	OpportunityKeywords []string `mapstructure:"opportunity_keywords"`
}

// RunConfig governs the ingestion pass itself.
type RunConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	Concurrency    int `mapstructure:"concurrency"`
}

// Timeout converts the run budget into a duration.
func (r RunConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// OpsConfig controls the optional run-scoped observability listener.
type OpsConfig struct {
	// ListenAddr enables the /healthz and /metrics listener when set,
	// e.g. ":9090". Empty disables it.
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnvKeys(v); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.num_results", 10)
	v.SetDefault("search.timeout_seconds", 10)
	v.SetDefault("search.requests_per_sec", 5)
	v.SetDefault("store.backend", "postgres")
	v.SetDefault("store.table", "low_voltage_leads")
	v.SetDefault("notify.port", 587)
	v.SetDefault("archive.backend", "none")
	v.SetDefault("archive.prefix", "responses")
	v.SetDefault("run.timeout_seconds", 300)
	v.SetDefault("run.concurrency", 1)
	v.SetDefault("logging.development", true)
}

// bindEnvKeys registers every config key with viper. AutomaticEnv only
// resolves env vars for keys viper already knows about, so keys that
// carry no default — the credentials above all — must be bound
// explicitly or an env-only deployment cannot set them.
func bindEnvKeys(v *viper.Viper) error {
	keys := []string{
		"search.api_key",
		"search.engine_id",
		"search.num_results",
		"search.timeout_seconds",
		"search.requests_per_sec",
		"queries",
		"store.backend",
		"store.dsn",
		"store.table",
		"store.max_conns",
		"store.min_conns",
		"notify.host",
		"notify.port",
		"notify.username",
		"notify.password",
		"notify.from",
		"notify.to",
		"publish.project_id",
		"publish.topic_name",
		"archive.backend",
		"archive.base_dir",
		"archive.bucket",
		"archive.prefix",
		"filter.junk_domains",
		"filter.important_suffixes",
		"filter.location_keywords",
		"filter.opportunity_keywords",
		"run.timeout_seconds",
		"run.concurrency",
		"logging.development",
		"ops.listen_addr",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits. Anything
// rejected here fails the run before any I/O happens.
func (c Config) Validate() error {
	if c.Search.APIKey == "" {
		return fmt.Errorf("search.api_key is required")
	}
	if c.Search.EngineID == "" {
		return fmt.Errorf("search.engine_id is required")
	}
	if c.Search.NumResults <= 0 || c.Search.NumResults > 10 {
		return fmt.Errorf("search.num_results must be in 1..10")
	}
	if c.Search.TimeoutSeconds <= 0 {
		return fmt.Errorf("search.timeout_seconds must be > 0")
	}
	switch c.Store.Backend {
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres backend")
		}
	case "memory":
	default:
		return fmt.Errorf("store.backend must be postgres or memory, got %q", c.Store.Backend)
	}
	switch c.Archive.Backend {
	case "none":
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir is required for the local backend")
		}
	case "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("archive.backend must be none, local or gcs, got %q", c.Archive.Backend)
	}
	if len(c.Notify.To) > 2 {
		return fmt.Errorf("notify.to supports at most two recipients")
	}
	if c.Run.TimeoutSeconds <= 0 {
		return fmt.Errorf("run.timeout_seconds must be > 0")
	}
	if c.Run.Concurrency <= 0 {
		return fmt.Errorf("run.concurrency must be > 0")
	}
	return nil
}
