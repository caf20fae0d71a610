// Package hangar composes the complete set of cluster resources for a deployment and hands it to a sink.
package hangar

import (
	"cmp"
	"maps"

	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
	"github.com/davidmdm/hangar/pkg/synth"
)

// Synthesizers in emission order.
var synthesizers = []synth.Synthesizer{
	synth.Workload,
	synth.Exposure,
	synth.Autoscaler,
	synth.Monitor,
	synth.SecretSync,
	synth.Application,
}

// Compose runs every synthesizer against the deployment and returns the resulting documents in emission order:
// workload, exposure, autoscaler, monitor, secret sync, gitops application.
// Composition is all or nothing: if any synthesizer fails no documents are returned.
func Compose(cfg synth.Config, deployment spec.Deployment) ([]resource.Document, error) {
	labels := map[string]string{
		synth.LabelApp:       deployment.Name,
		synth.LabelManagedBy: cmp.Or(cfg.ToolID, "hangar"),
	}

	var (
		errs spec.Errors
		docs []resource.Document
	)

	for _, synthesize := range synthesizers {
		doc, err := synthesize(cfg, deployment)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if doc == nil {
			continue
		}

		merged := maps.Clone(doc.Metadata.Labels)
		if merged == nil {
			merged = make(map[string]string, len(labels))
		}
		maps.Copy(merged, labels)
		doc.Metadata.Labels = merged

		docs = append(docs, *doc)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// FileNames returns the extension-less file name of each document, prefixed by its zero-padded emission index.
func FileNames(docs []resource.Document) []string {
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = resource.FileName(i, doc)
	}
	return names
}
