package config

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/genops/secret"
)

// RedactedCredential replaces literal credentials in rendered output.
const RedactedCredential = "[REDACTED]"

// YAML renders the configuration. Literal credentials are redacted;
// ${VAR} and secretref references are shown as written.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// MarshalYAML renders durations as strings.
func (c CircuitConfig) MarshalYAML() (any, error) {
	return struct {
		FailureThreshold int    `yaml:"failure_threshold"`
		RecoveryTimeout  string `yaml:"recovery_timeout"`
		SuccessThreshold int    `yaml:"success_threshold"`
	}{c.FailureThreshold, c.RecoveryTimeout.String(), c.SuccessThreshold}, nil
}

// MarshalYAML renders durations as strings.
func (r RetryConfig) MarshalYAML() (any, error) {
	return struct {
		MaxAttempts  int     `yaml:"max_attempts"`
		InitialDelay string  `yaml:"initial_delay"`
		MaxDelay     string  `yaml:"max_delay"`
		Multiplier   float64 `yaml:"multiplier"`
		Jitter       float64 `yaml:"jitter"`
	}{r.MaxAttempts, r.InitialDelay.String(), r.MaxDelay.String(), r.Multiplier, r.Jitter}, nil
}

// MarshalYAML renders durations as strings and redacts literal credentials.
func (p ProviderConfig) MarshalYAML() (any, error) {
	type provider struct {
		Adapter        string             `yaml:"adapter"`
		Credential     string             `yaml:"credential,omitempty"`
		Disabled       bool               `yaml:"disabled,omitempty"`
		Kinds          []string           `yaml:"kinds,omitempty"`
		Models         []string           `yaml:"models,omitempty"`
		Pricing        map[string]float64 `yaml:"pricing,omitempty"`
		MaxAttempts    int                `yaml:"max_attempts,omitempty"`
		RatePerSecond  float64            `yaml:"rate_per_second,omitempty"`
		Burst          int                `yaml:"burst,omitempty"`
		MaxConcurrent  int                `yaml:"max_concurrent,omitempty"`
		AttemptTimeout string             `yaml:"attempt_timeout,omitempty"`
	}
	out := provider{
		Adapter:       p.Adapter,
		Credential:    redact(p.Credential),
		Disabled:      p.Disabled,
		Kinds:         p.Kinds,
		Models:        p.Models,
		Pricing:       p.Pricing,
		MaxAttempts:   p.MaxAttempts,
		RatePerSecond: p.RatePerSecond,
		Burst:         p.Burst,
		MaxConcurrent: p.MaxConcurrent,
	}
	if p.AttemptTimeout > 0 {
		out.AttemptTimeout = p.AttemptTimeout.String()
	}
	return out, nil
}

func redact(credential string) string {
	if credential == "" || strings.HasPrefix(credential, secret.RefPrefix) || strings.Contains(credential, "${") {
		return credential
	}
	return RedactedCredential
}
