package spec

import (
	"bytes"
	"cmp"
	"encoding/json"
	"strings"
)

// Request is the raw, unvalidated description of an application as received from a front end.
// Every field other than kind, name and image lives in Options.
type Request struct {
	Kind    string
	Name    string
	Image   string
	Options map[string]any
}

// UnmarshalJSON accepts a flat object. "type" and "kind" are synonyms.
func (request *Request) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(keys ...string) (string, error) {
		var result string
		for _, key := range keys {
			value, ok := raw[key]
			if !ok {
				continue
			}
			delete(raw, key)
			if value == nil {
				continue
			}
			str, ok := value.(string)
			if !ok {
				return "", invalid(key, "must be a string")
			}
			result = cmp.Or(result, str)
		}
		return result, nil
	}

	var err error
	if request.Kind, err = take("type", "kind"); err != nil {
		return err
	}
	if request.Name, err = take("name"); err != nil {
		return err
	}
	if request.Image, err = take("image"); err != nil {
		return err
	}

	request.Options = raw

	return nil
}

func (request Request) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(request.Options)+3)
	for key, value := range request.Options {
		flat[key] = value
	}
	flat["type"] = request.Kind
	flat["name"] = request.Name
	flat["image"] = request.Image
	return json.Marshal(flat)
}

// Requests decodes either a single request object or an array of them.
type Requests []Request

func (requests *Requests) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var request Request
		if err := json.Unmarshal(trimmed, &request); err != nil {
			return err
		}
		*requests = Requests{request}
		return nil
	}

	var many []Request
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*requests = many
	return nil
}

// Deployment is the canonical, fully defaulted description of an application.
// It is built once by Normalize and treated as immutable afterwards.
type Deployment struct {
	Kind      Kind
	Name      string
	Namespace string
	Image     string
	Command   []string
	Args      []string

	// Port is the container port. Zero means the workload listens on nothing.
	Port     int32
	PortName string
	Replicas int32

	Env       []EnvVar
	Resources Resources
	Probes    Probes

	// Schedule turns a job into a scheduled job when set.
	Schedule string

	Autoscaling Autoscaling
	Metrics     Metrics
	Logging     Logging
	GitOps      GitOps

	ExternalSecrets       []string
	SecretStore           string
	SecretRefreshInterval string
}

func (deployment Deployment) HasPort() bool { return deployment.Port > 0 }

// Resources holds compute quantities. Empty values fall back to the composer configuration.
type Resources struct {
	CPURequest    string
	CPULimit      string
	MemoryRequest string
	MemoryLimit   string
}

type Probes struct {
	LivenessPath  string
	ReadinessPath string
}

// Autoscaling holds optional overrides. A nil override means the default formula applies.
type Autoscaling struct {
	Enabled      bool
	MinReplicas  *int32
	MaxReplicas  *int32
	CPUTarget    *int32
	MemoryTarget *int32
}

type Metrics struct {
	Enabled  bool
	Path     string
	PortName string
	Interval string
}

type Logging struct {
	Enabled     bool
	Environment string
}

type GitOps struct {
	Enabled   bool
	RepoURL   string
	Path      string
	Branch    string
	Project   string
	Namespace string
	AutoSync  bool
	Prune     bool
	SelfHeal  bool
}

// Defaults are the installation-wide fallbacks applied during normalization.
type Defaults struct {
	Namespace             string
	GitOpsNamespace       string
	SecretStore           string
	SecretRefreshInterval string
}

func (defaults Defaults) orBuiltin() Defaults {
	return Defaults{
		Namespace:             cmp.Or(strings.TrimSpace(defaults.Namespace), "default"),
		GitOpsNamespace:       cmp.Or(strings.TrimSpace(defaults.GitOpsNamespace), "argocd"),
		SecretStore:           cmp.Or(strings.TrimSpace(defaults.SecretStore), "gcp-secret-store"),
		SecretRefreshInterval: cmp.Or(strings.TrimSpace(defaults.SecretRefreshInterval), "1h"),
	}
}
