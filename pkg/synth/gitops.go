package synth

import (
	"cmp"

	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
)

// Application wraps the deployment in an Argo CD Application living in the controller namespace.
// The application syncs the manifests found under the configured repository path.
func Application(cfg Config, deployment spec.Deployment) (*resource.Document, error) {
	gitops := deployment.GitOps
	if !gitops.Enabled {
		return nil, nil
	}

	if gitops.RepoURL == "" {
		return nil, &spec.ValidationError{Field: "git_repo", Message: "is required when gitops is enabled"}
	}

	policy := SyncPolicy{SyncOptions: []string{"CreateNamespace=true"}}
	if gitops.AutoSync {
		policy.Automated = &SyncPolicyAutomated{Prune: gitops.Prune, SelfHeal: gitops.SelfHeal}
	}

	return &resource.Document{
		APIVersion: ApplicationAPIVersion,
		Kind:       ApplicationKind,
		Metadata: resource.Metadata{
			Name:      deployment.Name,
			Namespace: cmp.Or(gitops.Namespace, "argocd"),
		},
		Spec: ApplicationSpec{
			Project: cmp.Or(gitops.Project, "default"),
			Source: ApplicationSource{
				RepoURL:        gitops.RepoURL,
				Path:           cmp.Or(gitops.Path, deployment.Name),
				TargetRevision: cmp.Or(gitops.Branch, "main"),
			},
			Destination: ApplicationDestination{
				Server:    cmp.Or(cfg.DestinationServer, "https://kubernetes.default.svc"),
				Namespace: deployment.Namespace,
			},
			SyncPolicy: policy,
		},
	}, nil
}
