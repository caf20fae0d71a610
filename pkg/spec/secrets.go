package spec

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// Directive maps one entry of the remote secret store to a key of the generated local secret.
type Directive struct {
	RemoteKey string `json:"remoteKey"`
	LocalKey  string `json:"localKey"`
}

// SecretName is the name of the cluster secret that external secret directives are synced into.
func SecretName(deployment string) string {
	return deployment + "-secrets"
}

// ParseDirective parses "remoteKey" or "remoteKey:localKey".
func ParseDirective(raw string) (Directive, error) {
	remote, local, found := strings.Cut(strings.TrimSpace(raw), ":")
	remote, local = strings.TrimSpace(remote), strings.TrimSpace(local)

	if remote == "" {
		return Directive{}, invalid("external_secrets", "directive %q has an empty remote key", raw)
	}
	if !found {
		local = remote
	}
	if local == "" {
		return Directive{}, invalid("external_secrets", "directive %q has an empty local key", raw)
	}
	if msgs := validation.IsConfigMapKey(local); len(msgs) > 0 {
		return Directive{}, invalid("external_secrets", "directive %q: invalid local key: %s", raw, strings.Join(msgs, "; "))
	}

	return Directive{RemoteKey: remote, LocalKey: local}, nil
}

// ResolveDirectives parses every directive in order. Two directives writing the same local key is a ConfigError.
func ResolveDirectives(raw []string) ([]Directive, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var errs Errors

	directives := make([]Directive, 0, len(raw))
	owners := make(map[string]string, len(raw))

	for _, value := range raw {
		directive, err := ParseDirective(value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if previous, ok := owners[directive.LocalKey]; ok {
			errs = append(errs, inconsistent("external_secrets", "directives %q and %q both write local key %q", previous, value, directive.LocalKey))
			continue
		}
		owners[directive.LocalKey] = value
		directives = append(directives, directive)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	return directives, nil
}
