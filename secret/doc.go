// Package secret resolves provider credentials from configuration values.
//
// A credential value may be:
//   - a literal (used as is),
//   - a string with ${VAR} references, expanded strictly (see ExpandEnvStrict),
//   - a secret reference of the form secretref:<provider>:<ref>.
//
// Two providers are built in: "env" reads an environment variable and
// "file" reads a file such as a mounted container secret.
//
//	secretref:env:ALPHA_API_KEY
//	secretref:file:/run/secrets/alpha_api_key
package secret
