package resource

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestFileName(t *testing.T) {
	doc := Document{APIVersion: "autoscaling/v2", Kind: "HorizontalPodAutoscaler", Metadata: Metadata{Name: "my-api"}}
	require.Equal(t, "00-horizontalpodautoscaler-my-api", FileName(0, doc))
	require.Equal(t, "12-horizontalpodautoscaler-my-api", FileName(12, doc))
}

func TestCanonical(t *testing.T) {
	require.Equal(
		t,
		"default.apps.v1.deployment.my-api",
		Document{APIVersion: "apps/v1", Kind: "Deployment", Metadata: Metadata{Name: "my-api", Namespace: "default"}}.Canonical(),
	)
	require.Equal(
		t,
		"_.core.v1.namespace.prod",
		Document{APIVersion: "v1", Kind: "Namespace", Metadata: Metadata{Name: "prod"}}.Canonical(),
	)
}

func TestUnstructuredDropsNulls(t *testing.T) {
	doc := Document{
		APIVersion: "apps/v1",
		Kind:       "Deployment",
		Metadata:   Metadata{Name: "my-api", Namespace: "default"},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr(int32(3)),
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": "my-api"}},
		},
	}

	object, err := doc.Unstructured()
	require.NoError(t, err)

	require.Equal(t, "my-api", object.GetName())
	require.Equal(t, "Deployment", object.GetKind())

	replicas, found, err := unstructured.NestedInt64(object.Object, "spec", "replicas")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(3), replicas)

	_, found, err = unstructured.NestedFieldNoCopy(object.Object, "spec", "template", "metadata", "creationTimestamp")
	require.NoError(t, err)
	require.False(t, found)
}

func TestEncodeYAML(t *testing.T) {
	docs := []Document{
		{
			APIVersion: "v1",
			Kind:       "ConfigMap",
			Metadata:   Metadata{Name: "a", Namespace: "default", Labels: map[string]string{"managed-by": "hangar", "app": "a"}},
			Spec:       map[string]any{"zeta": 1, "alpha": "x"},
		},
		{
			APIVersion: "v1",
			Kind:       "ConfigMap",
			Metadata:   Metadata{Name: "b", Namespace: "default"},
			Spec:       map[string]any{"key": "value"},
		},
	}

	var first, second bytes.Buffer
	require.NoError(t, EncodeYAML(&first, docs...))
	require.NoError(t, EncodeYAML(&second, docs...))

	require.Equal(t, first.String(), second.String())
	require.Equal(
		t,
		`apiVersion: v1
kind: ConfigMap
metadata:
  labels:
    app: a
    managed-by: hangar
  name: a
  namespace: default
spec:
  alpha: x
  zeta: 1
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: b
  namespace: default
spec:
  key: value
`,
		first.String(),
	)
}

func ptr[T any](value T) *T { return &value }
