package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func object(apiVersion, kind string, generation int64, status map[string]any) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]any{
			"apiVersion": apiVersion,
			"kind":       kind,
			"metadata":   map[string]any{"name": "my-api", "generation": generation},
			"status":     status,
		},
	}
}

func TestIsReady(t *testing.T) {
	cases := []struct {
		Name     string
		Resource *unstructured.Unstructured
		Ready    bool
	}{
		{
			Name: "available deployment",
			Resource: object("apps/v1", "Deployment", 2, map[string]any{
				"observedGeneration": int64(2),
				"replicas":           int64(3),
				"availableReplicas":  int64(3),
				"readyReplicas":      int64(3),
				"updatedReplicas":    int64(3),
				"conditions":         []any{map[string]any{"type": "Available", "status": "True"}},
			}),
			Ready: true,
		},
		{
			Name: "deployment rolling out",
			Resource: object("apps/v1", "Deployment", 2, map[string]any{
				"observedGeneration": int64(2),
				"replicas":           int64(3),
				"availableReplicas":  int64(2),
				"readyReplicas":      int64(2),
				"updatedReplicas":    int64(3),
				"conditions":         []any{map[string]any{"type": "Available", "status": "True"}},
			}),
			Ready: false,
		},
		{
			Name: "deployment with stale status",
			Resource: object("apps/v1", "Deployment", 3, map[string]any{
				"observedGeneration": int64(2),
				"replicas":           int64(1),
				"availableReplicas":  int64(1),
				"readyReplicas":      int64(1),
				"updatedReplicas":    int64(1),
				"conditions":         []any{map[string]any{"type": "Available", "status": "True"}},
			}),
			Ready: false,
		},
		{
			Name:     "completed job",
			Resource: object("batch/v1", "Job", 1, map[string]any{"conditions": []any{map[string]any{"type": "Complete", "status": "True"}}}),
			Ready:    true,
		},
		{
			Name:     "running job",
			Resource: object("batch/v1", "Job", 1, map[string]any{"active": int64(1)}),
			Ready:    false,
		},
		{
			Name:     "active namespace",
			Resource: object("v1", "Namespace", 0, map[string]any{"phase": "Active"}),
			Ready:    true,
		},
		{
			Name:     "terminating namespace",
			Resource: object("v1", "Namespace", 0, map[string]any{"phase": "Terminating"}),
			Ready:    false,
		},
		{
			Name:     "synced external secret",
			Resource: object("external-secrets.io/v1beta1", "ExternalSecret", 1, map[string]any{"conditions": []any{map[string]any{"type": "Ready", "status": "True", "reason": "SecretSynced"}}}),
			Ready:    true,
		},
		{
			Name:     "failing external secret",
			Resource: object("external-secrets.io/v1beta1", "ExternalSecret", 1, map[string]any{"conditions": []any{map[string]any{"type": "Ready", "status": "False", "reason": "SecretSyncedError"}}}),
			Ready:    false,
		},
		{
			Name:     "progressing application",
			Resource: object("argoproj.io/v1alpha1", "Application", 1, map[string]any{"health": map[string]any{"status": "Progressing"}}),
			Ready:    false,
		},
		{
			Name:     "autoscaler has no readiness",
			Resource: object("autoscaling/v2", "HorizontalPodAutoscaler", 1, nil),
			Ready:    true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			require.Equal(t, tc.Ready, isReady(context.Background(), tc.Resource))
		})
	}
}

func TestCanonical(t *testing.T) {
	require.Equal(t, "production.apps.v1.deployment.my-api", canonical(&unstructured.Unstructured{
		Object: map[string]any{
			"apiVersion": "apps/v1",
			"kind":       "Deployment",
			"metadata":   map[string]any{"name": "my-api", "namespace": "production"},
		},
	}))
	require.Equal(t, "_.core.v1.namespace.production", canonical(&unstructured.Unstructured{
		Object: map[string]any{
			"apiVersion": "v1",
			"kind":       "Namespace",
			"metadata":   map[string]any{"name": "production"},
		},
	}))
}
