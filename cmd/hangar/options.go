package main

import (
	"flag"
	"strings"
)

type optionKind int

const (
	scalar optionKind = iota
	toggle
	repeated
)

// optionValue is a flag that forwards its raw value to the normalizer as a request option.
// Only flags that were set on the command line become options, so defaults stay the normalizer's concern.
type optionValue struct {
	key  string
	kind optionKind
	set  bool
	raw  []string
}

func (option *optionValue) String() string {
	if option == nil {
		return ""
	}
	return strings.Join(option.raw, ",")
}

func (option *optionValue) Set(value string) error {
	if option.kind == repeated {
		option.raw = append(option.raw, value)
	} else {
		option.raw = []string{value}
	}
	option.set = true
	return nil
}

func (option *optionValue) IsBoolFlag() bool { return option != nil && option.kind == toggle }

func (option *optionValue) value() any {
	if option.kind == repeated {
		return option.raw
	}
	return option.raw[0]
}

type optionSpec struct {
	Flag  string
	Alias string
	Key   string
	Kind  optionKind
	Usage string
}

var deployOptions = []optionSpec{
	{Flag: "namespace", Alias: "n", Usage: "namespace to deploy into"},
	{Flag: "port", Usage: "container port; required for services and workers"},
	{Flag: "port-name", Usage: "name of the container port (default http)"},
	{Flag: "replicas", Usage: "desired replica count (default 1)"},
	{Flag: "arg", Key: "args", Kind: repeated, Usage: "container argument; may be repeated"},
	{Flag: "env", Alias: "e", Kind: repeated, Usage: "environment variable NAME=value; may be repeated"},
	{Flag: "secret-env", Kind: repeated, Usage: "environment variable from a secret NAME=secret:key; may be repeated"},
	{Flag: "cpu-request", Usage: "cpu request (default from config)"},
	{Flag: "cpu-limit", Usage: "cpu limit (default from config)"},
	{Flag: "memory-request", Usage: "memory request (default from config)"},
	{Flag: "memory-limit", Usage: "memory limit (default from config)"},
	{Flag: "liveness-path", Usage: "http path of the liveness probe"},
	{Flag: "readiness-path", Usage: "http path of the readiness probe"},
	{Flag: "schedule", Usage: "cron schedule; turns a job into a cron job"},
	{Flag: "autoscaling", Kind: toggle, Usage: "create a horizontal pod autoscaler (default true)"},
	{Flag: "min-replicas", Usage: "autoscaler minimum replicas"},
	{Flag: "max-replicas", Usage: "autoscaler maximum replicas"},
	{Flag: "cpu-target", Usage: "autoscaler cpu utilization target percentage"},
	{Flag: "memory-target", Usage: "autoscaler memory utilization target percentage"},
	{Flag: "metrics", Kind: toggle, Usage: "create a prometheus monitor (default true)"},
	{Flag: "metrics-path", Usage: "metrics path (default /metrics)"},
	{Flag: "metrics-port", Usage: "metrics port name (default the port name)"},
	{Flag: "metrics-interval", Usage: "metrics scrape interval (default 30s)"},
	{Flag: "logging", Kind: toggle, Usage: "enable log collection (default true)"},
	{Flag: "logging-environment", Usage: "environment label for log collection"},
	{Flag: "gitops", Kind: toggle, Usage: "wrap the deployment in an argo cd application"},
	{Flag: "git-repo", Usage: "repository url the application syncs from"},
	{Flag: "git-path", Usage: "path within the repository (default the deployment name)"},
	{Flag: "git-branch", Usage: "branch or revision to sync (default main)"},
	{Flag: "argocd-project", Usage: "argo cd project (default default)"},
	{Flag: "argocd-namespace", Usage: "argo cd namespace (default from config)"},
	{Flag: "auto-sync", Kind: toggle, Usage: "enable automated sync"},
	{Flag: "prune", Kind: toggle, Usage: "prune resources during automated sync"},
	{Flag: "self-heal", Kind: toggle, Usage: "self heal during automated sync"},
	{Flag: "external-secret", Key: "external_secrets", Kind: repeated, Usage: "secret directive remoteKey[:localKey]; may be repeated"},
	{Flag: "secret-store", Usage: "secret store to sync external secrets from (default from config)"},
	{Flag: "secret-refresh-interval", Usage: "external secret refresh interval (default from config)"},
}

// RegisterOptionFlags defines one flag per option and returns a function collecting the options that were set.
func RegisterOptionFlags(flagset *flag.FlagSet, specs []optionSpec) func() map[string]any {
	values := make([]*optionValue, len(specs))

	for i, spec := range specs {
		key := spec.Key
		if key == "" {
			key = strings.ReplaceAll(spec.Flag, "-", "_")
		}

		values[i] = &optionValue{key: key, kind: spec.Kind}

		flagset.Var(values[i], spec.Flag, spec.Usage)
		if spec.Alias != "" {
			flagset.Var(values[i], spec.Alias, "shorthand for -"+spec.Flag)
		}
	}

	return func() map[string]any {
		options := map[string]any{}
		for _, value := range values {
			if value.set {
				options[value.key] = value.value()
			}
		}
		return options
	}
}
