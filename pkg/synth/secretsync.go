package synth

import (
	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
)

// SecretSync produces an ExternalSecret that materializes the deployment's directives
// into the secret consumed by the workload through envFrom.
func SecretSync(_ Config, deployment spec.Deployment) (*resource.Document, error) {
	directives, err := spec.ResolveDirectives(deployment.ExternalSecrets)
	if err != nil {
		return nil, err
	}
	if len(directives) == 0 {
		return nil, nil
	}

	data := make([]ExternalSecretData, len(directives))
	for i, directive := range directives {
		data[i] = ExternalSecretData{
			SecretKey: directive.LocalKey,
			RemoteRef: RemoteRef{Key: directive.RemoteKey},
		}
	}

	return &resource.Document{
		APIVersion: ExternalSecretAPIVersion,
		Kind:       ExternalSecretKind,
		Metadata:   metadata(deployment),
		Spec: ExternalSecretSpec{
			RefreshInterval: deployment.SecretRefreshInterval,
			SecretStoreRef:  SecretStoreRef{Name: deployment.SecretStore, Kind: "SecretStore"},
			Target: ExternalSecretTarget{
				Name:           spec.SecretName(deployment.Name),
				CreationPolicy: "Owner",
			},
			Data: data,
		},
	}, nil
}
