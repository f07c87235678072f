// Package config loads genops configuration with viper.
//
// Values come from, in increasing precedence: built-in defaults, a YAML
// file (./genops.yaml or $HOME/.config/genops/genops.yaml unless a path is
// given), and GENOPS_-prefixed environment variables where nested keys use
// underscores (GENOPS_BUDGET_CEILING, GENOPS_CIRCUIT_RECOVERY_TIMEOUT).
// Durations are written as Go duration strings ("60s", "250ms").
//
// Provider credentials may be literals, ${VAR} references or
// secretref:<provider>:<ref> references; they are resolved when the
// registry is built, not at load time.
package config
