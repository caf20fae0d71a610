package synth

import (
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apiresource "k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/davidmdm/hangar/pkg/spec"
)

func TestWorkloadService(t *testing.T) {
	deployment := normalize(t, "service", "my-api", map[string]any{
		"replicas":            3,
		"command":             []string{"/bin/api"},
		"args":                []string{"--verbose"},
		"env":                 []string{"LOG_LEVEL=debug"},
		"secret_env":          []string{"DB_PASSWORD=db:password"},
		"external_secrets":    []string{"api-key:API_KEY"},
		"logging_environment": "production",
		"readiness_path":      "/ready",
		"memory_limit":        "1Gi",
	})

	doc, err := Workload(DefaultConfig(), deployment)
	require.NoError(t, err)

	require.Equal(t, "apps/v1", doc.APIVersion)
	require.Equal(t, "Deployment", doc.Kind)

	workload, ok := doc.Spec.(appsv1.DeploymentSpec)
	require.True(t, ok)

	require.Equal(t, int32(3), *workload.Replicas)
	require.Equal(t, map[string]string{"app": "my-api"}, workload.Selector.MatchLabels)

	require.Equal(
		t,
		map[string]string{"app": "my-api", "logging": "enabled", "environment": "production"},
		workload.Template.Labels,
	)
	require.Equal(
		t,
		map[string]string{
			"fluentbit.io/parser":  "json",
			"prometheus.io/scrape": "true",
			"prometheus.io/port":   "8080",
			"prometheus.io/path":   "/metrics",
		},
		workload.Template.Annotations,
	)

	require.Len(t, workload.Template.Spec.Containers, 1)
	container := workload.Template.Spec.Containers[0]

	require.Equal(t, "my-api", container.Name)
	require.Equal(t, "registry.example.com/my-api:v1", container.Image)
	require.Equal(t, []string{"/bin/api"}, container.Command)
	require.Equal(t, []string{"--verbose"}, container.Args)
	require.Equal(t, []corev1.ContainerPort{{Name: "http", ContainerPort: 8080, Protocol: corev1.ProtocolTCP}}, container.Ports)

	require.Equal(
		t,
		[]corev1.EnvVar{
			{Name: "LOG_LEVEL", Value: "debug"},
			{
				Name: "DB_PASSWORD",
				ValueFrom: &corev1.EnvVarSource{
					SecretKeyRef: &corev1.SecretKeySelector{
						LocalObjectReference: corev1.LocalObjectReference{Name: "db"},
						Key:                  "password",
					},
				},
			},
		},
		container.Env,
	)
	require.Equal(t, "my-api-secrets", container.EnvFrom[0].SecretRef.Name)

	require.Equal(
		t,
		corev1.ResourceRequirements{
			Requests: corev1.ResourceList{
				corev1.ResourceCPU:    apiresource.MustParse("100m"),
				corev1.ResourceMemory: apiresource.MustParse("128Mi"),
			},
			Limits: corev1.ResourceList{
				corev1.ResourceCPU:    apiresource.MustParse("500m"),
				corev1.ResourceMemory: apiresource.MustParse("1Gi"),
			},
		},
		container.Resources,
	)

	require.Nil(t, container.LivenessProbe)
	require.Equal(t, "/ready", container.ReadinessProbe.HTTPGet.Path)
	require.Equal(t, intstr.FromString("http"), container.ReadinessProbe.HTTPGet.Port)
}

func TestWorkloadJob(t *testing.T) {
	doc, err := Workload(DefaultConfig(), normalize(t, "job", "migrate", nil))
	require.NoError(t, err)

	require.Equal(t, "batch/v1", doc.APIVersion)
	require.Equal(t, "Job", doc.Kind)

	job, ok := doc.Spec.(batchv1.JobSpec)
	require.True(t, ok)

	require.Equal(t, int32(3), *job.BackoffLimit)
	require.Equal(t, corev1.RestartPolicyOnFailure, job.Template.Spec.RestartPolicy)
	require.Empty(t, job.Template.Spec.Containers[0].Ports)
	require.Empty(t, job.Template.Spec.Containers[0].EnvFrom)

	// Without a port there is nothing to scrape.
	require.Equal(t, map[string]string{"fluentbit.io/parser": "json"}, job.Template.Annotations)
}

func TestWorkloadScheduledJob(t *testing.T) {
	doc, err := Workload(DefaultConfig(), normalize(t, "job", "report", map[string]any{"schedule": "0 3 * * *"}))
	require.NoError(t, err)

	require.Equal(t, "batch/v1", doc.APIVersion)
	require.Equal(t, "CronJob", doc.Kind)

	cronjob, ok := doc.Spec.(batchv1.CronJobSpec)
	require.True(t, ok)
	require.Equal(t, "0 3 * * *", cronjob.Schedule)
	require.Equal(t, corev1.RestartPolicyOnFailure, cronjob.JobTemplate.Spec.Template.Spec.RestartPolicy)
}

func TestWorkloadWithoutLoggingOrMetrics(t *testing.T) {
	doc, err := Workload(DefaultConfig(), normalize(t, "worker", "consumer", map[string]any{"logging": false, "metrics": false}))
	require.NoError(t, err)

	workload := doc.Spec.(appsv1.DeploymentSpec)
	require.Equal(t, map[string]string{"app": "consumer"}, workload.Template.Labels)
	require.Nil(t, workload.Template.Annotations)
}

func TestWorkloadRejectsInvalidDefaultResources(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultResources.CPULimit = "lots"

	_, err := Workload(cfg, normalize(t, "service", "my-api", nil))
	require.ErrorIs(t, err, spec.ErrConfig)
}

func TestExposure(t *testing.T) {
	doc, err := Exposure(DefaultConfig(), normalize(t, "service", "my-api", map[string]any{"port_name": "web"}))
	require.NoError(t, err)

	require.Equal(t, "v1", doc.APIVersion)
	require.Equal(t, "Service", doc.Kind)

	service, ok := doc.Spec.(corev1.ServiceSpec)
	require.True(t, ok)

	require.Equal(t, corev1.ServiceTypeClusterIP, service.Type)
	require.Equal(t, map[string]string{"app": "my-api"}, service.Selector)
	require.Equal(
		t,
		[]corev1.ServicePort{{Name: "web", Protocol: corev1.ProtocolTCP, Port: 8080, TargetPort: intstr.FromString("web")}},
		service.Ports,
	)

	doc, err = Exposure(DefaultConfig(), normalize(t, "job", "migrate", map[string]any{"port": 9090}))
	require.NoError(t, err)
	require.Nil(t, doc)
}
