package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Empty(t *testing.T) {
	cfg := &Config{}
	warnings := cfg.Validate()
	if len(warnings) != 0 {
		t.Errorf("empty config should have no warnings, got %v", warnings)
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if warnings := cfg.Validate(); len(warnings) != 0 {
		t.Errorf("default config should have no warnings, got %v", warnings)
	}
}

func TestValidate_CommandReasonerWithoutCommand(t *testing.T) {
	cfg := &Config{Reasoner: ReasonerConfig{Kind: "command"}}
	if !hasWarning(cfg.Validate(), "reasoner.command") {
		t.Error("expected warning about missing reasoner command")
	}
}

func TestValidate_UnknownReasoner(t *testing.T) {
	cfg := &Config{Reasoner: ReasonerConfig{Kind: "hermit"}}
	if !hasWarning(cfg.Validate(), "unknown reasoner kind") {
		t.Error("expected warning about unknown reasoner kind")
	}
}

func TestValidate_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      bool // true = should warn
	}{
		{"zero", 0, false},
		{"default", 0.8, false},
		{"max", 1.0, false},
		{"negative", -0.1, true},
		{"too_high", 1.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Lexical: LexicalConfig{Threshold: tt.threshold}}
			if got := hasWarning(cfg.Validate(), "threshold"); got != tt.want {
				t.Errorf("threshold=%.1f: hasWarn=%v, want=%v", tt.threshold, got, tt.want)
			}
		})
	}
}

func TestValidate_GraphCredentials(t *testing.T) {
	cfg := &Config{Graph: GraphConfig{URI: "bolt://localhost:7687"}}
	if !hasWarning(cfg.Validate(), "username") {
		t.Error("expected warning about missing graph username")
	}
}

func TestValidate_PublishEmbeddedWithURL(t *testing.T) {
	cfg := &Config{Publish: PublishConfig{Embedded: true, NATSURL: "nats://localhost:4222"}}
	if !hasWarning(cfg.Validate(), "publish.nats_url is ignored") {
		t.Error("expected warning about ignored nats_url")
	}
}

func TestValidate_VaultWithoutToken(t *testing.T) {
	cfg := &Config{Secrets: SecretsConfig{VaultAddr: "http://vault:8200"}}
	if !hasWarning(cfg.Validate(), "vault_token") {
		t.Error("expected warning about missing vault token")
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "verbose"}}
	if !hasWarning(cfg.Validate(), "unknown log level") {
		t.Error("expected warning about unknown log level")
	}
	cfg.Log.Level = "WARN"
	if hasWarning(cfg.Validate(), "log level") {
		t.Error("log level should be case-insensitive")
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if cfg.Reasoner.Kind != "structural" {
		t.Errorf("expected reasoner kind structural, got %q", cfg.Reasoner.Kind)
	}
	if cfg.Reasoner.Timeout != 2*time.Minute {
		t.Errorf("expected reasoner timeout 2m, got %s", cfg.Reasoner.Timeout)
	}
	if cfg.Lexical.Threshold != 0.8 {
		t.Errorf("expected lexical threshold 0.8, got %v", cfg.Lexical.Threshold)
	}
	if cfg.Quality.FOOPSURL != "http://localhost:8083/assessOntology" {
		t.Errorf("unexpected foops url %q", cfg.Quality.FOOPSURL)
	}
	if !cfg.Gates.Enabled || cfg.Gates.ConsistencySeverity != "critical" {
		t.Errorf("unexpected gate defaults %+v", cfg.Gates)
	}
	if cfg.Secrets.VaultMount != "secret" {
		t.Errorf("got vault mount %q", cfg.Secrets.VaultMount)
	}
	if cfg.Audit.Enabled || cfg.Audit.Path != "stderr" {
		t.Errorf("unexpected audit defaults %+v", cfg.Audit)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ontometer.yaml")
	data := `
reasoner:
  kind: command
  command: /usr/local/bin/pellet
  args: ["consistency", "{file}"]
  timeout: 45s
lexical:
  threshold: 0.7
gates:
  max_inheritance_depth: 12
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ONTOMETER_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Reasoner.Command != "/usr/local/bin/pellet" {
		t.Errorf("got command %q", cfg.Reasoner.Command)
	}
	if len(cfg.Reasoner.Args) != 2 || cfg.Reasoner.Args[1] != "{file}" {
		t.Errorf("got args %v", cfg.Reasoner.Args)
	}
	if cfg.Reasoner.Timeout != 45*time.Second {
		t.Errorf("got timeout %s", cfg.Reasoner.Timeout)
	}
	if cfg.Lexical.Threshold != 0.7 {
		t.Errorf("got threshold %v", cfg.Lexical.Threshold)
	}
	if cfg.Gates.MaxInheritanceDepth != 12 {
		t.Errorf("got max depth %d", cfg.Gates.MaxInheritanceDepth)
	}
	if cfg.Gates.ConsistencySeverity != "critical" {
		t.Errorf("unset gate fields should keep defaults, got %q", cfg.Gates.ConsistencySeverity)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("env override not applied, got log level %q", cfg.Log.Level)
	}
}

func TestUnmarshal_BadValue(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("reasoner.timeout", "soon")
	if _, err := unmarshal(v); err == nil || !strings.Contains(err.Error(), "unmarshalling config") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoad_BadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ontometer.yaml")
	if err := os.WriteFile(path, []byte("reasoner:\n  timeout: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for an invalid duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("got server addr %q", cfg.Server.Addr)
	}
}
