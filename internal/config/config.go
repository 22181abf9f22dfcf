package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/efebarandurmaz/ontometer/internal/qualitygate"
)

// Config holds all application configuration.
type Config struct {
	Reasoner ReasonerConfig         `mapstructure:"reasoner"`
	Loader   LoaderConfig           `mapstructure:"loader"`
	Lexical  LexicalConfig          `mapstructure:"lexical"`
	Quality  QualityConfig          `mapstructure:"quality"`
	Gates    qualitygate.GateConfig `mapstructure:"gates"`
	Server   ServerConfig           `mapstructure:"server"`
	History  HistoryConfig          `mapstructure:"history"`
	Publish  PublishConfig          `mapstructure:"publish"`
	Graph    GraphConfig            `mapstructure:"graph"`
	Temporal TemporalConfig         `mapstructure:"temporal"`
	Tracing  TracingConfig          `mapstructure:"tracing"`
	Audit    AuditConfig            `mapstructure:"audit"`
	Secrets  SecretsConfig          `mapstructure:"secrets"`
	Log      LogConfig              `mapstructure:"log"`
}

// ReasonerConfig selects the consistency checker. Kind is "structural"
// (built in), "command" (external binary) or "none".
type ReasonerConfig struct {
	Kind    string        `mapstructure:"kind"`
	Command string        `mapstructure:"command"`
	Args    []string      `mapstructure:"args"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoaderConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	ResolveImports bool          `mapstructure:"resolve_imports"`
	MaxImportDepth int           `mapstructure:"max_import_depth"`
	DefaultFormat  string        `mapstructure:"default_format"`
	// RemoteOnly refuses local paths and file:// IRIs, for sources and
	// imports alike. serve and the worker always set it.
	RemoteOnly bool `mapstructure:"remote_only"`
}

type LexicalConfig struct {
	DatamuseURL string        `mapstructure:"datamuse_url"`
	Threshold   float64       `mapstructure:"threshold"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type QualityConfig struct {
	FOOPSURL string        `mapstructure:"foops_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Enabled  bool          `mapstructure:"enabled"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	HealthAddr      string        `mapstructure:"health_addr"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// PublishConfig enables assessment publishing when NATSURL is set or
// Embedded is true. Embedded runs an in-process NATS server.
type PublishConfig struct {
	NATSURL  string `mapstructure:"nats_url"`
	Embedded bool   `mapstructure:"embedded"`
	Subject  string `mapstructure:"subject"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// AuditConfig writes JSON audit events to Path ("stdout", "stderr" or a
// file) when Enabled.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SecretsConfig points "vault:" credential references at a Vault server.
// The token may itself be an "env:" or "file:" reference.
type SecretsConfig struct {
	VaultAddr  string `mapstructure:"vault_addr"`
	VaultToken string `mapstructure:"vault_token"`
	VaultMount string `mapstructure:"vault_mount"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("reasoner.kind", "structural")
	v.SetDefault("reasoner.timeout", 2*time.Minute)
	v.SetDefault("loader.timeout", 30*time.Second)
	v.SetDefault("loader.max_retries", 3)
	v.SetDefault("loader.resolve_imports", true)
	v.SetDefault("loader.max_import_depth", 5)
	v.SetDefault("loader.default_format", "turtle")
	v.SetDefault("loader.remote_only", false)
	v.SetDefault("lexical.datamuse_url", "https://api.datamuse.com/words")
	v.SetDefault("lexical.threshold", 0.8)
	v.SetDefault("lexical.timeout", 10*time.Second)
	v.SetDefault("quality.foops_url", "http://localhost:8083/assessOntology")
	v.SetDefault("quality.timeout", 60*time.Second)
	v.SetDefault("quality.enabled", true)
	gates := qualitygate.DefaultConfig()
	v.SetDefault("gates.enabled", gates.Enabled)
	v.SetDefault("gates.consistency_severity", gates.ConsistencySeverity)
	v.SetDefault("gates.min_relationship_richness", gates.MinRelationshipRichness)
	v.SetDefault("gates.relationship_severity", gates.RelationshipSeverity)
	v.SetDefault("gates.max_inheritance_depth", gates.MaxInheritanceDepth)
	v.SetDefault("gates.depth_severity", gates.DepthSeverity)
	v.SetDefault("gates.max_root_ratio", gates.MaxRootRatio)
	v.SetDefault("gates.root_severity", gates.RootSeverity)
	v.SetDefault("gates.min_negotiated_formats", gates.MinNegotiatedFormats)
	v.SetDefault("gates.negotiation_severity", gates.NegotiationSeverity)
	v.SetDefault("gates.min_domain_coverage", gates.MinDomainCoverage)
	v.SetDefault("gates.coverage_severity", gates.CoverageSeverity)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.health_addr", ":8081")
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("history.path", "ontometer.db")
	v.SetDefault("publish.subject", "ontometer.assessments")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "ontometer")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.path", "stderr")
	v.SetDefault("secrets.vault_mount", "secret")
	// Keys without a meaningful default are still registered so that
	// ONTOMETER_* variables can set them.
	for _, key := range []string{
		"reasoner.command", "publish.nats_url", "graph.uri", "graph.username",
		"graph.password", "graph.database", "temporal.host", "tracing.endpoint",
		"secrets.vault_addr", "secrets.vault_token",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("publish.embedded", false)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	switch c.Reasoner.Kind {
	case "", "structural", "none":
	case "command":
		if c.Reasoner.Command == "" {
			warnings = append(warnings, "reasoner kind 'command' is configured but reasoner.command is empty")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown reasoner kind '%s'", c.Reasoner.Kind))
	}

	if c.Reasoner.Timeout < 0 {
		warnings = append(warnings, fmt.Sprintf("reasoner timeout %s is negative", c.Reasoner.Timeout))
	}

	// Similarity threshold is a ratio in [0, 1]
	if c.Lexical.Threshold < 0 || c.Lexical.Threshold > 1 {
		warnings = append(warnings, fmt.Sprintf("lexical threshold %.2f is outside range [0.0, 1.0]", c.Lexical.Threshold))
	}

	if c.Loader.MaxImportDepth < 0 {
		warnings = append(warnings, fmt.Sprintf("loader max_import_depth %d is negative", c.Loader.MaxImportDepth))
	}

	if c.Graph.URI != "" && c.Graph.Username == "" {
		warnings = append(warnings, "graph uri is set but username is empty")
	}

	if c.Secrets.VaultAddr != "" && c.Secrets.VaultToken == "" {
		warnings = append(warnings, "secrets.vault_addr is set but secrets.vault_token is empty")
	}

	if c.Publish.Embedded && c.Publish.NATSURL != "" {
		warnings = append(warnings, "publish.embedded is set; publish.nats_url is ignored")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log level '%s'", c.Log.Level))
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_ratio %.2f is outside range [0.0, 1.0]", c.Tracing.SampleRatio))
	}

	return warnings
}

// Load reads configuration from file and environment. An empty path
// skips the file and uses defaults plus ONTOMETER_* variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ONTOMETER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return cfg, nil
}
