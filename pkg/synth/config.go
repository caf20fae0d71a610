// Package synth turns a normalized deployment into cluster resource documents.
// Every synthesizer is a pure function of its Config and the deployment and yields zero or one document.
package synth

import (
	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
)

const (
	LabelApp       = "app"
	LabelManagedBy = "managed-by"
)

// Config holds the installation-wide settings shared by all synthesizers. It is passed by value and never mutated.
type Config struct {
	// ToolID is written to the managed-by label and used as the field manager when applying.
	ToolID string

	// DefaultResources fills any request or limit the deployment leaves empty.
	DefaultResources spec.Resources

	// DestinationServer is the cluster API address written into GitOps applications.
	DestinationServer string
}

func DefaultConfig() Config {
	return Config{
		ToolID: "hangar",
		DefaultResources: spec.Resources{
			CPURequest:    "100m",
			CPULimit:      "500m",
			MemoryRequest: "128Mi",
			MemoryLimit:   "512Mi",
		},
		DestinationServer: "https://kubernetes.default.svc",
	}
}

// Synthesizer derives at most one document from a deployment. A nil document means the resource does not apply.
type Synthesizer func(Config, spec.Deployment) (*resource.Document, error)

func metadata(deployment spec.Deployment) resource.Metadata {
	return resource.Metadata{Name: deployment.Name, Namespace: deployment.Namespace}
}

func selector(deployment spec.Deployment) map[string]string {
	return map[string]string{LabelApp: deployment.Name}
}
