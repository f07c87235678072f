package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/genops/generation"
	"github.com/jonwraymond/genops/observe"
)

const sampleYAML = `
log_level: debug
budget:
  ceiling: 50
circuit:
  failure_threshold: 3
  recovery_timeout: 90s
retry:
  max_attempts: 2
  initial_delay: 250ms
  jitter: 0
providers:
  alpha:
    adapter: mock
    credential: sk-live-123
    kinds: [image]
    pricing:
      default: 0.02
      img-hd: 0.08
    rate_per_second: 5
    burst: 2
    attempt_timeout: 20s
  beta:
    adapter: mock
    credential: secretref:env:BETA_KEY
    disabled: true
preferred:
  image: alpha
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genops.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Circuit.FailureThreshold != 5 || cfg.Circuit.RecoveryTimeout != 60*time.Second || cfg.Circuit.SuccessThreshold != 3 {
		t.Errorf("Circuit = %+v", cfg.Circuit)
	}
	if cfg.Retry.MaxAttempts != 4 || cfg.Retry.InitialDelay != time.Second || cfg.Retry.MaxDelay != 30*time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.Retry.Multiplier != 2 || cfg.Retry.Jitter != 0.1 {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Observe.ServiceName != "genops" || cfg.Observe.Logging.Level != "info" {
		t.Errorf("Observe = %+v", cfg.Observe)
	}
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Budget.Ceiling != 50 {
		t.Errorf("Budget.Ceiling = %v, want 50", cfg.Budget.Ceiling)
	}
	if cfg.Circuit.FailureThreshold != 3 || cfg.Circuit.RecoveryTimeout != 90*time.Second {
		t.Errorf("Circuit = %+v", cfg.Circuit)
	}
	if cfg.Circuit.SuccessThreshold != 3 {
		t.Errorf("default SuccessThreshold lost: %d", cfg.Circuit.SuccessThreshold)
	}

	alpha := cfg.Providers["alpha"]
	if alpha.Adapter != "mock" || alpha.AttemptTimeout != 20*time.Second || alpha.RatePerSecond != 5 {
		t.Errorf("alpha = %+v", alpha)
	}
	if !cfg.Providers["beta"].Disabled {
		t.Error("beta should be disabled")
	}
	if cfg.Preferred["image"] != "alpha" {
		t.Errorf("Preferred = %v", cfg.Preferred)
	}
	if cfg.Observe.Logging.Level != "debug" {
		t.Errorf("Observe.Logging.Level = %q, want debug", cfg.Observe.Logging.Level)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GENOPS_BUDGET_CEILING", "25")
	t.Setenv("GENOPS_CIRCUIT_RECOVERY_TIMEOUT", "5m")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Budget.Ceiling != 25 {
		t.Errorf("Budget.Ceiling = %v, want 25", cfg.Budget.Ceiling)
	}
	if cfg.Circuit.RecoveryTimeout != 5*time.Minute {
		t.Errorf("RecoveryTimeout = %v, want 5m", cfg.Circuit.RecoveryTimeout)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with missing explicit file should fail")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			LogLevel:  "info",
			Providers: map[string]ProviderConfig{"alpha": {Adapter: "mock"}},
			Retry:     RetryConfig{Jitter: 0.1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"negative ceiling", func(c *Config) { c.Budget.Ceiling = -1 }, "budget.ceiling"},
		{"jitter at one", func(c *Config) { c.Retry.Jitter = 1 }, "retry.jitter"},
		{"negative threshold", func(c *Config) { c.Circuit.FailureThreshold = -1 }, "circuit thresholds"},
		{"missing adapter", func(c *Config) { c.Providers["beta"] = ProviderConfig{} }, "providers.beta.adapter"},
		{"bad kind", func(c *Config) {
			c.Providers["alpha"] = ProviderConfig{Adapter: "mock", Kinds: []string{"hologram"}}
		}, "unknown kind"},
		{"preferred unknown kind", func(c *Config) { c.Preferred = map[string]string{"hologram": "alpha"} }, "preferred"},
		{"preferred undeclared", func(c *Config) { c.Preferred = map[string]string{"image": "ghost"} }, "not declared"},
		{"observe", func(c *Config) {
			c.Observe.Tracing = observe.TracingConfig{Enabled: true, Exporter: "zipkin"}
		}, "observe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			cfg.Observe.ServiceName = "genops"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestProviderConfig_Capabilities(t *testing.T) {
	p := ProviderConfig{
		Kinds:   []string{"image"},
		Pricing: map[string]float64{"default": 0.02, "img-hd": 0.08},
	}
	caps := p.Capabilities()
	if !caps.SupportsKind(generation.KindImage) || caps.SupportsKind(generation.KindVideo) {
		t.Errorf("Kinds = %v, want [image]", caps.Kinds)
	}
	if price, _ := caps.Price("img-1"); price != 0.02 {
		t.Errorf("Price(img-1) = %v, want default 0.02", price)
	}
	if price, _ := caps.Price("img-hd"); price != 0.08 {
		t.Errorf("Price(img-hd) = %v, want 0.08", price)
	}

	if all := (ProviderConfig{}).Capabilities(); len(all.Kinds) != len(generation.Kinds) {
		t.Errorf("default Kinds = %v, want all", all.Kinds)
	}
}

func TestRegistryConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	rc := cfg.RegistryConfig()
	if rc.BudgetCeiling != 50 || rc.Circuit.FailureThreshold != 3 || rc.Retry.MaxAttempts != 2 {
		t.Errorf("RegistryConfig() = %+v", rc)
	}
	if rc.Retry.Jitter != -1 {
		t.Errorf("Retry.Jitter = %v, want -1 (disabled)", rc.Retry.Jitter)
	}

	if n := len(cfg.Providers["alpha"].Options()); n != 2 {
		t.Errorf("alpha Options() = %d, want 2", n)
	}
	if n := len(cfg.Providers["beta"].Options()); n != 1 {
		t.Errorf("beta Options() = %d, want 1", n)
	}
}

func TestYAML_RedactsLiteralCredentials(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	s := string(out)
	if strings.Contains(s, "sk-live-123") {
		t.Error("literal credential leaked")
	}
	for _, want := range []string{RedactedCredential, "secretref:env:BETA_KEY", "recovery_timeout: 1m30s", "attempt_timeout: 20s"} {
		if !strings.Contains(s, want) {
			t.Errorf("YAML() missing %q:\n%s", want, s)
		}
	}
}
