package inspect

import (
	"context"
	"errors"
	"testing"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	kerrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/utils/ptr"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
	ctrlruntimefakeclient "sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/davidmdm/hangar/pkg/synth"
)

func labels(app string) map[string]string {
	return map[string]string{synth.LabelApp: app, synth.LabelManagedBy: "hangar"}
}

func fakeClient(t *testing.T, objects ...ctrlruntimeclient.Object) ctrlruntimeclient.Client {
	t.Helper()

	scheme := runtime.NewScheme()
	require.NoError(t, clientgoscheme.AddToScheme(scheme))
	require.NoError(t, monitoringv1.AddToScheme(scheme))

	scheme.AddKnownTypeWithName(applicationKind, &unstructured.Unstructured{})
	scheme.AddKnownTypeWithName(applicationKind.GroupVersion().WithKind(applicationKind.Kind+"List"), &unstructured.UnstructuredList{})

	return ctrlruntimefakeclient.NewClientBuilder().WithScheme(scheme).WithObjects(objects...).Build()
}

func application(name, namespace, destination string) *unstructured.Unstructured {
	app := &unstructured.Unstructured{Object: map[string]any{
		"spec": map[string]any{
			"destination": map[string]any{"namespace": destination},
		},
	}}
	app.SetGroupVersionKind(applicationKind)
	app.SetName(name)
	app.SetNamespace(namespace)
	app.SetLabels(labels(name))
	return app
}

func cluster(t *testing.T) ctrlruntimeclient.Client {
	return fakeClient(
		t,
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "my-api", Namespace: "production", Labels: labels("my-api")},
			Spec:       appsv1.DeploymentSpec{Replicas: ptr.To[int32](3)},
			Status:     appsv1.DeploymentStatus{AvailableReplicas: 2},
		},
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "my-api", Namespace: "production", Labels: labels("my-api")},
			Spec:       corev1.ServiceSpec{ClusterIP: "10.0.0.12"},
		},
		&autoscalingv2.HorizontalPodAutoscaler{
			ObjectMeta: metav1.ObjectMeta{Name: "my-api", Namespace: "production", Labels: labels("my-api")},
			Spec:       autoscalingv2.HorizontalPodAutoscalerSpec{MinReplicas: ptr.To[int32](2), MaxReplicas: 6},
			Status:     autoscalingv2.HorizontalPodAutoscalerStatus{CurrentReplicas: 3, DesiredReplicas: 3},
		},
		&monitoringv1.ServiceMonitor{
			ObjectMeta: metav1.ObjectMeta{Name: "my-api", Namespace: "production", Labels: labels("my-api")},
		},
		application("my-api", "argocd", "production"),
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "worker", Namespace: "default", Labels: labels("worker")},
			Spec:       appsv1.DeploymentSpec{Replicas: ptr.To[int32](1)},
			Status:     appsv1.DeploymentStatus{AvailableReplicas: 1},
		},
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "unmanaged", Namespace: "production", Labels: map[string]string{"app": "unmanaged"}},
		},
	)
}

func TestStatus(t *testing.T) {
	inspector := Inspector{Client: cluster(t), Log: zap.NewNop().Sugar()}

	status, err := inspector.Status(context.Background(), "my-api", "production")
	require.NoError(t, err)

	require.Equal(t, "my-api", status.Name)
	require.False(t, status.Ready)
	require.Equal(
		t,
		[]ResourceStatus{
			{Kind: "Deployment", Name: "my-api", Namespace: "production", Ready: false, Detail: "2/3 available"},
			{Kind: "Service", Name: "my-api", Namespace: "production", Ready: true, Detail: "cluster ip 10.0.0.12"},
			{Kind: "HorizontalPodAutoscaler", Name: "my-api", Namespace: "production", Ready: true, Detail: "3 current, 3 desired (2-6)"},
			{Kind: "ServiceMonitor", Name: "my-api", Namespace: "production", Ready: true},
			{Kind: "Application", Name: "my-api", Namespace: "argocd", Ready: true},
		},
		status.Resources,
	)
}

func TestStatusNotFound(t *testing.T) {
	inspector := Inspector{Client: cluster(t)}

	_, err := inspector.Status(context.Background(), "my-api", "staging")
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = inspector.Status(context.Background(), "unmanaged", "production")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestTeardown(t *testing.T) {
	client := cluster(t)
	inspector := Inspector{Client: client, Log: zap.NewNop().Sugar()}

	removed, err := inspector.Teardown(context.Background(), "my-api", "production")
	require.NoError(t, err)

	var kinds []string
	for _, resource := range removed {
		kinds = append(kinds, resource.Kind)
	}
	require.Equal(t, []string{"Application", "ServiceMonitor", "HorizontalPodAutoscaler", "Service", "Deployment"}, kinds)

	_, err = inspector.Status(context.Background(), "my-api", "production")
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = inspector.Teardown(context.Background(), "my-api", "production")
	require.True(t, errors.Is(err, ErrNotFound))

	var worker appsv1.Deployment
	require.NoError(t, client.Get(context.Background(), ctrlruntimeclient.ObjectKey{Namespace: "default", Name: "worker"}, &worker))
}

func TestApplicationOutsideDefaultNamespace(t *testing.T) {
	client := fakeClient(
		t,
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "billing", Namespace: "payments", Labels: labels("billing")},
			Spec:       appsv1.DeploymentSpec{Replicas: ptr.To[int32](1)},
			Status:     appsv1.DeploymentStatus{AvailableReplicas: 1},
		},
		application("billing", "gitops", "payments"),
		application("billing", "argocd", "staging"),
	)

	inspector := Inspector{Client: client, Log: zap.NewNop().Sugar()}

	status, err := inspector.Status(context.Background(), "billing", "payments")
	require.NoError(t, err)
	require.Equal(
		t,
		[]ResourceStatus{
			{Kind: "Deployment", Name: "billing", Namespace: "payments", Ready: true, Detail: "1/1 available"},
			{Kind: "Application", Name: "billing", Namespace: "gitops", Ready: true},
		},
		status.Resources,
	)

	removed, err := inspector.Teardown(context.Background(), "billing", "payments")
	require.NoError(t, err)
	require.Equal(t, "Application", removed[0].Kind)
	require.Equal(t, "gitops", removed[0].Namespace)

	var remaining unstructured.Unstructured
	remaining.SetGroupVersionKind(applicationKind)

	err = client.Get(context.Background(), ctrlruntimeclient.ObjectKey{Namespace: "gitops", Name: "billing"}, &remaining)
	require.True(t, kerrors.IsNotFound(err))

	require.NoError(t, client.Get(context.Background(), ctrlruntimeclient.ObjectKey{Namespace: "argocd", Name: "billing"}, &remaining))
}

func TestList(t *testing.T) {
	inspector := Inspector{Client: cluster(t)}

	apps, err := inspector.List(context.Background(), "")
	require.NoError(t, err)
	require.Equal(
		t,
		[]Application{
			{Name: "worker", Namespace: "default", Workload: "Deployment", Ready: true, Detail: "1/1 available"},
			{Name: "my-api", Namespace: "production", Workload: "Deployment", Ready: false, Detail: "2/3 available"},
		},
		apps,
	)

	apps, err = inspector.List(context.Background(), "default")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.Equal(t, "worker", apps[0].Name)
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		Name   string
		Object map[string]any
		Ready  bool
		Detail string
	}{
		{
			Name:   "completed job",
			Object: map[string]any{"kind": "Job", "status": map[string]any{"succeeded": int64(1)}},
			Ready:  true,
			Detail: "complete",
		},
		{
			Name:   "running job",
			Object: map[string]any{"kind": "Job", "status": map[string]any{"active": int64(1), "failed": int64(2)}},
			Detail: "1 active, 2 failed",
		},
		{
			Name:   "cron job never run",
			Object: map[string]any{"kind": "CronJob", "spec": map[string]any{"schedule": "0 2 * * *"}},
			Ready:  true,
			Detail: `schedule "0 2 * * *", never run`,
		},
		{
			Name: "external secret not synced",
			Object: map[string]any{
				"kind": "ExternalSecret",
				"status": map[string]any{
					"conditions": []any{map[string]any{"type": "Ready", "status": "False", "reason": "SecretSyncedError"}},
				},
			},
			Detail: "SecretSyncedError",
		},
		{
			Name: "application out of sync",
			Object: map[string]any{
				"kind": "Application",
				"status": map[string]any{
					"health": map[string]any{"status": "Healthy"},
					"sync":   map[string]any{"status": "OutOfSync"},
				},
			},
			Detail: "OutOfSync, Healthy",
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			ready, detail := describe(&unstructured.Unstructured{Object: tc.Object})
			require.Equal(t, tc.Ready, ready)
			require.Equal(t, tc.Detail, detail)
		})
	}
}
