package spec

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Normalize validates a raw request and produces a canonical Deployment with every default applied.
// All problems found are reported together; a failed request yields the zero Deployment.
func Normalize(request Request, defaults Defaults) (Deployment, error) {
	defaults = defaults.orBuiltin()

	kind, err := ParseKind(request.Kind)
	if err != nil {
		return Deployment{}, err
	}

	opts := options{raw: request.Options, read: map[string]bool{}}

	portName := opts.String("port_name", "http")

	deployment := Deployment{
		Kind:      kind,
		Name:      strings.TrimSpace(request.Name),
		Image:     strings.TrimSpace(request.Image),
		Namespace: opts.String("namespace", defaults.Namespace),
		Command:   opts.Strings("command"),
		Args:      opts.Strings("args"),
		Port:      opts.Int32("port", 0),
		PortName:  portName,
		Replicas:  opts.Int32("replicas", 1),
		Schedule:  opts.String("schedule", ""),
		Resources: Resources{
			CPURequest:    opts.Quantity("cpu_request"),
			CPULimit:      opts.Quantity("cpu_limit"),
			MemoryRequest: opts.Quantity("memory_request"),
			MemoryLimit:   opts.Quantity("memory_limit"),
		},
		Probes: Probes{
			LivenessPath:  opts.Path("liveness_path", ""),
			ReadinessPath: opts.Path("readiness_path", ""),
		},
		Autoscaling: Autoscaling{
			Enabled:      opts.Bool("autoscaling", true),
			MinReplicas:  opts.PositiveInt32("min_replicas"),
			MaxReplicas:  opts.PositiveInt32("max_replicas"),
			CPUTarget:    opts.PositiveInt32("cpu_target"),
			MemoryTarget: opts.PositiveInt32("memory_target"),
		},
		Metrics: Metrics{
			Enabled:  opts.Bool("metrics", true),
			Path:     opts.Path("metrics_path", "/metrics"),
			PortName: opts.String("metrics_port", portName),
			Interval: opts.Duration("metrics_interval", "30s"),
		},
		Logging: Logging{
			Enabled:     opts.Bool("logging", true),
			Environment: opts.String("logging_environment", ""),
		},
		GitOps: GitOps{
			Enabled:   opts.Bool("gitops", false),
			RepoURL:   opts.String("git_repo", ""),
			Path:      opts.String("git_path", ""),
			Branch:    opts.String("git_branch", "main"),
			Project:   opts.String("argocd_project", "default"),
			Namespace: opts.String("argocd_namespace", defaults.GitOpsNamespace),
			AutoSync:  opts.Bool("auto_sync", true),
			Prune:     opts.Bool("prune", true),
			SelfHeal:  opts.Bool("self_heal", true),
		},
		ExternalSecrets:       opts.Strings("external_secrets"),
		SecretStore:           opts.String("secret_store", defaults.SecretStore),
		SecretRefreshInterval: opts.Duration("secret_refresh_interval", defaults.SecretRefreshInterval),
	}

	deployment.Env = opts.Env()

	errs := append(opts.errs, opts.Unknown()...)

	if deployment.Name == "" {
		errs = append(errs, invalid("name", "is required"))
	} else if msgs := validation.IsDNS1123Label(deployment.Name); len(msgs) > 0 {
		errs = append(errs, invalid("name", "%s", strings.Join(msgs, "; ")))
	}

	if deployment.Image == "" {
		errs = append(errs, invalid("image", "is required"))
	}

	if msgs := validation.IsDNS1123Label(deployment.Namespace); len(msgs) > 0 {
		errs = append(errs, invalid("namespace", "%s", strings.Join(msgs, "; ")))
	}

	switch {
	case deployment.Port == 0 && kind.LongRunning():
		errs = append(errs, invalid("port", "is required for %s deployments", kind))
	case deployment.Port < 0 || deployment.Port > 65535:
		errs = append(errs, invalid("port", "%d is out of range", deployment.Port))
	}

	for _, port := range []struct{ field, name string }{
		{field: "port_name", name: deployment.PortName},
		{field: "metrics_port", name: deployment.Metrics.PortName},
	} {
		if msgs := validation.IsValidPortName(port.name); len(msgs) > 0 {
			errs = append(errs, invalid(port.field, "%s", strings.Join(msgs, "; ")))
		}
	}

	if deployment.Replicas < 0 {
		errs = append(errs, invalid("replicas", "must be greater than or equal to 0"))
	}

	if deployment.Schedule != "" {
		if kind != Job {
			errs = append(errs, invalid("schedule", "is only supported for job deployments"))
		} else if fields := strings.Fields(deployment.Schedule); len(fields) != 5 && !strings.HasPrefix(deployment.Schedule, "@") {
			errs = append(errs, invalid("schedule", "%q is not a cron expression", deployment.Schedule))
		}
	}

	if !deployment.HasPort() {
		if deployment.Probes.LivenessPath != "" {
			errs = append(errs, invalid("liveness_path", "requires a port"))
		}
		if deployment.Probes.ReadinessPath != "" {
			errs = append(errs, invalid("readiness_path", "requires a port"))
		}
	}

	if deployment.GitOps.Enabled {
		if deployment.GitOps.RepoURL == "" {
			errs = append(errs, invalid("git_repo", "is required when gitops is enabled"))
		}
		if msgs := validation.IsDNS1123Label(deployment.GitOps.Namespace); len(msgs) > 0 {
			errs = append(errs, invalid("argocd_namespace", "%s", strings.Join(msgs, "; ")))
		}
		if deployment.GitOps.Path == "" {
			deployment.GitOps.Path = deployment.Name
		}
	}

	if _, err := ResolveDirectives(deployment.ExternalSecrets); err != nil {
		errs = append(errs, err)
	}

	if err := errs.Err(); err != nil {
		return Deployment{}, err
	}

	return deployment, nil
}

// options reads typed values out of a loosely typed map. Values from flags, JSON and YAML
// arrive as strings, float64 or native types and are coerced with cast.
type options struct {
	raw  map[string]any
	read map[string]bool
	errs Errors
}

func (opts *options) lookup(key string) (any, bool) {
	opts.read[key] = true
	value, ok := opts.raw[key]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

func (opts *options) fail(key string, err error) {
	opts.errs = append(opts.errs, invalid(key, "%v", err))
}

func (opts *options) String(key, fallback string) string {
	value, ok := opts.lookup(key)
	if !ok {
		return fallback
	}
	str, err := cast.ToStringE(value)
	if err != nil {
		opts.fail(key, err)
		return fallback
	}
	if str = strings.TrimSpace(str); str == "" {
		return fallback
	}
	return str
}

func (opts *options) Bool(key string, fallback bool) bool {
	value, ok := opts.lookup(key)
	if !ok {
		return fallback
	}
	result, err := cast.ToBoolE(value)
	if err != nil {
		opts.fail(key, err)
		return fallback
	}
	return result
}

func (opts *options) Int32(key string, fallback int32) int32 {
	value, ok := opts.lookup(key)
	if !ok {
		return fallback
	}
	result, err := cast.ToInt32E(value)
	if err != nil {
		opts.fail(key, err)
		return fallback
	}
	return result
}

func (opts *options) PositiveInt32(key string) *int32 {
	value, ok := opts.lookup(key)
	if !ok {
		return nil
	}
	result, err := cast.ToInt32E(value)
	if err != nil {
		opts.fail(key, err)
		return nil
	}
	if result < 1 {
		opts.errs = append(opts.errs, invalid(key, "must be at least 1, got %d", result))
		return nil
	}
	return &result
}

func (opts *options) Strings(key string) []string {
	value, ok := opts.lookup(key)
	if !ok {
		return nil
	}
	if str, ok := value.(string); ok {
		if str = strings.TrimSpace(str); str == "" {
			return nil
		}
		return []string{str}
	}
	result, err := cast.ToStringSliceE(value)
	if err != nil {
		opts.fail(key, err)
		return nil
	}
	return result
}

func (opts *options) Quantity(key string) string {
	value := opts.String(key, "")
	if value == "" {
		return ""
	}
	if _, err := resource.ParseQuantity(value); err != nil {
		opts.fail(key, err)
		return ""
	}
	return value
}

func (opts *options) Path(key, fallback string) string {
	value := opts.String(key, fallback)
	if value != "" && !strings.HasPrefix(value, "/") {
		opts.errs = append(opts.errs, invalid(key, "%q must start with /", value))
	}
	return value
}

func (opts *options) Duration(key, fallback string) string {
	value := opts.String(key, fallback)
	if _, err := time.ParseDuration(value); err != nil {
		opts.fail(key, err)
	}
	return value
}

// Env reads both "env" and "secret_env" and rejects duplicate variable names.
func (opts *options) Env() []EnvVar {
	var result []EnvVar

	add := func(env EnvVar, err error) {
		if err != nil {
			opts.errs = append(opts.errs, err)
			return
		}
		if slices.ContainsFunc(result, func(existing EnvVar) bool { return existing.Name() == env.Name() }) {
			opts.errs = append(opts.errs, invalid("env."+env.Name(), "is defined more than once"))
			return
		}
		result = append(result, env)
	}

	if value, ok := opts.lookup("env"); ok {
		entries, err := asList(value)
		if err != nil {
			opts.fail("env", err)
		}
		for _, entry := range entries {
			add(envFromEntry(entry))
		}
	}

	for _, entry := range opts.Strings("secret_env") {
		add(parseSecretEnvEntry(entry))
	}

	return result
}

func (opts *options) Unknown() Errors {
	var unknown []string
	for key := range opts.raw {
		if !opts.read[key] {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)

	var errs Errors
	for _, key := range unknown {
		errs = append(errs, invalid(key, "unknown option"))
	}
	return errs
}

func asList(value any) ([]any, error) {
	switch value := value.(type) {
	case []any:
		return value, nil
	case []string:
		result := make([]any, len(value))
		for i, entry := range value {
			result[i] = entry
		}
		return result, nil
	case string, map[string]any:
		return []any{value}, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}

func envFromEntry(entry any) (EnvVar, error) {
	if str, ok := entry.(string); ok {
		return parseEnvEntry(str)
	}

	fields, err := cast.ToStringMapE(entry)
	if err != nil {
		return EnvVar{}, invalid("env", "entry must be a string or an object: %v", err)
	}

	name := cast.ToString(fields["name"])

	var value *string
	if raw, ok := fields["value"]; ok && raw != nil {
		str := cast.ToString(raw)
		value = &str
	}

	var ref *SecretKeyRef
	secret, key := cast.ToString(fields["secret"]), cast.ToString(fields["key"])
	if secret != "" || key != "" {
		ref = &SecretKeyRef{Secret: secret, Key: key}
	}

	return NewEnvVar(name, value, ref)
}
