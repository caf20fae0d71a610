package hangar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"

	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
	"github.com/davidmdm/hangar/pkg/synth"
)

func fullRequest(overrides map[string]any) spec.Request {
	options := map[string]any{
		"port":             8080,
		"replicas":         5,
		"gitops":           true,
		"git_repo":         "https://github.com/example/deployments",
		"external_secrets": []string{"db-password", "api-key:API_KEY"},
	}
	for key, value := range overrides {
		options[key] = value
	}
	return spec.Request{Kind: "service", Name: "my-api", Image: "gcr.io/project/api:v1.0", Options: options}
}

func compose(t *testing.T, request spec.Request) []resource.Document {
	t.Helper()

	deployment, err := spec.Normalize(request, spec.Defaults{})
	require.NoError(t, err)

	docs, err := Compose(synth.DefaultConfig(), deployment)
	require.NoError(t, err)

	return docs
}

func kinds(docs []resource.Document) []string {
	result := make([]string, len(docs))
	for i, doc := range docs {
		result[i] = doc.Kind
	}
	return result
}

func TestComposeOrder(t *testing.T) {
	docs := compose(t, fullRequest(nil))

	require.Equal(
		t,
		[]string{"Deployment", "Service", "HorizontalPodAutoscaler", "ServiceMonitor", "ExternalSecret", "Application"},
		kinds(docs),
	)

	require.Equal(
		t,
		[]string{
			"00-deployment-my-api",
			"01-service-my-api",
			"02-horizontalpodautoscaler-my-api",
			"03-servicemonitor-my-api",
			"04-externalsecret-my-api",
			"05-application-my-api",
		},
		FileNames(docs),
	)
}

func TestComposeLabels(t *testing.T) {
	cfg := synth.DefaultConfig()
	cfg.ToolID = "platform"

	deployment, err := spec.Normalize(fullRequest(nil), spec.Defaults{})
	require.NoError(t, err)

	docs, err := Compose(cfg, deployment)
	require.NoError(t, err)

	for _, doc := range docs {
		require.Equal(t, map[string]string{"app": "my-api", "managed-by": "platform"}, doc.Metadata.Labels, doc.Kind)
	}
}

func TestComposeJob(t *testing.T) {
	docs := compose(t, spec.Request{Kind: "job", Name: "migrate", Image: "migrate:v1"})
	require.Equal(t, []string{"Job"}, kinds(docs))

	docs = compose(t, spec.Request{Kind: "job", Name: "report", Image: "report:v1", Options: map[string]any{"schedule": "@daily", "port": 9100}})
	require.Equal(t, []string{"CronJob", "PodMonitor"}, kinds(docs))
}

func TestComposeIsIdempotent(t *testing.T) {
	first := compose(t, fullRequest(nil))
	second := compose(t, fullRequest(nil))
	require.Equal(t, first, second)

	var a, b bytes.Buffer
	require.NoError(t, resource.EncodeYAML(&a, first...))
	require.NoError(t, resource.EncodeYAML(&b, second...))
	require.Equal(t, a.String(), b.String())
}

func TestComposeIsAllOrNothing(t *testing.T) {
	deployment, err := spec.Normalize(fullRequest(map[string]any{"min_replicas": 40}), spec.Defaults{})
	require.NoError(t, err)

	docs, err := Compose(synth.DefaultConfig(), deployment)
	require.ErrorIs(t, err, spec.ErrConfig)
	require.Nil(t, docs)
}

func TestComposeFeatureToggling(t *testing.T) {
	baseline := compose(t, fullRequest(nil))

	without := func(docs []resource.Document, kinds ...string) []resource.Document {
		var result []resource.Document
	outer:
		for _, doc := range docs {
			for _, kind := range kinds {
				if doc.Kind == kind {
					continue outer
				}
			}
			result = append(result, doc)
		}
		return result
	}

	t.Run("autoscaling", func(t *testing.T) {
		docs := compose(t, fullRequest(map[string]any{"autoscaling": false}))
		require.Equal(t, without(baseline, "HorizontalPodAutoscaler"), docs)
	})

	t.Run("gitops", func(t *testing.T) {
		docs := compose(t, fullRequest(map[string]any{"gitops": false}))
		require.Equal(t, without(baseline, "Application"), docs)
	})

	t.Run("metrics", func(t *testing.T) {
		docs := compose(t, fullRequest(map[string]any{"metrics": false}))
		require.Equal(t, without(baseline, "ServiceMonitor", "Deployment"), without(docs, "Deployment"))

		annotations := docs[0].Spec.(appsv1.DeploymentSpec).Template.Annotations
		require.Equal(t, map[string]string{"fluentbit.io/parser": "json"}, annotations)
	})

	t.Run("logging", func(t *testing.T) {
		docs := compose(t, fullRequest(map[string]any{"logging": false}))
		require.Equal(t, without(baseline, "Deployment"), without(docs, "Deployment"))

		template := docs[0].Spec.(appsv1.DeploymentSpec).Template
		require.Equal(t, map[string]string{"app": "my-api"}, template.Labels)
		require.NotContains(t, template.Annotations, "fluentbit.io/parser")
		require.Contains(t, template.Annotations, "prometheus.io/scrape")
	})
}
