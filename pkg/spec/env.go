package spec

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

type EnvSource int

const (
	EnvLiteral EnvSource = iota + 1
	EnvSecretRef
)

type SecretKeyRef struct {
	Secret string
	Key    string
}

// EnvVar is a container environment variable sourced from exactly one of a literal value or a secret key.
// The zero value has no source and is rejected by the synthesizers.
type EnvVar struct {
	name   string
	source EnvSource
	value  string
	ref    SecretKeyRef
}

// NewEnvVar builds an EnvVar from optional payloads. Exactly one of value and ref must be non-nil.
func NewEnvVar(name string, value *string, ref *SecretKeyRef) (EnvVar, error) {
	switch {
	case value != nil && ref != nil:
		return EnvVar{}, invalid("env."+name, "cannot set both a value and a secret reference")
	case value != nil:
		return LiteralEnv(name, *value)
	case ref != nil:
		return SecretEnv(name, ref.Secret, ref.Key)
	default:
		return EnvVar{}, invalid("env."+name, "must set either a value or a secret reference")
	}
}

func LiteralEnv(name, value string) (EnvVar, error) {
	if err := validateEnvName(name); err != nil {
		return EnvVar{}, err
	}
	return EnvVar{name: name, source: EnvLiteral, value: value}, nil
}

func SecretEnv(name, secret, key string) (EnvVar, error) {
	if err := validateEnvName(name); err != nil {
		return EnvVar{}, err
	}
	if msgs := validation.IsDNS1123Subdomain(secret); len(msgs) > 0 {
		return EnvVar{}, invalid("env."+name, "invalid secret name %q: %s", secret, strings.Join(msgs, "; "))
	}
	if msgs := validation.IsConfigMapKey(key); len(msgs) > 0 {
		return EnvVar{}, invalid("env."+name, "invalid secret key %q: %s", key, strings.Join(msgs, "; "))
	}
	return EnvVar{name: name, source: EnvSecretRef, ref: SecretKeyRef{Secret: secret, Key: key}}, nil
}

func (env EnvVar) Name() string      { return env.name }
func (env EnvVar) Source() EnvSource { return env.source }

func (env EnvVar) Value() (string, bool) {
	return env.value, env.source == EnvLiteral
}

func (env EnvVar) SecretRef() (SecretKeyRef, bool) {
	return env.ref, env.source == EnvSecretRef
}

func validateEnvName(name string) error {
	if name == "" {
		return invalid("env", "name is required")
	}
	if msgs := validation.IsEnvVarName(name); len(msgs) > 0 {
		return invalid("env."+name, "%s", strings.Join(msgs, "; "))
	}
	return nil
}

// parseEnvEntry reads the NAME=value shorthand.
func parseEnvEntry(entry string) (EnvVar, error) {
	name, value, ok := strings.Cut(entry, "=")
	if !ok {
		return EnvVar{}, invalid("env", "entry %q must be of the form NAME=VALUE", entry)
	}
	return LiteralEnv(strings.TrimSpace(name), value)
}

// parseSecretEnvEntry reads NAME=secret:key, or secret:key in which case the key doubles as the variable name.
func parseSecretEnvEntry(entry string) (EnvVar, error) {
	name, ref, ok := strings.Cut(entry, "=")
	if !ok {
		name, ref = "", entry
	}

	secret, key, ok := strings.Cut(ref, ":")
	if !ok || secret == "" || key == "" {
		return EnvVar{}, invalid("secret_env", "entry %q must be of the form [NAME=]SECRET:KEY", entry)
	}

	if name == "" {
		name = key
	}

	return SecretEnv(strings.TrimSpace(name), secret, key)
}
