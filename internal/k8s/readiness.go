package k8s

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	namespaceKind      = schema.GroupKind{Kind: "Namespace"}
	deploymentKind     = schema.GroupKind{Group: "apps", Kind: "Deployment"}
	jobKind            = schema.GroupKind{Group: "batch", Kind: "Job"}
	externalSecretKind = schema.GroupKind{Group: "external-secrets.io", Kind: "ExternalSecret"}
	applicationKind    = schema.GroupKind{Group: "argoproj.io", Kind: "Application"}
)

// isReady reports whether a resource emitted by hangar has settled.
// Kinds without a notion of readiness, such as services and autoscalers, are ready once applied.
func isReady(_ context.Context, resource *unstructured.Unstructured) bool {
	switch resource.GroupVersionKind().GroupKind() {
	case namespaceKind:
		phase, _, _ := unstructured.NestedString(resource.Object, "status", "phase")
		return phase == "Active"

	case deploymentKind:
		observed, _, _ := unstructured.NestedInt64(resource.Object, "status", "observedGeneration")
		return observed >= resource.GetGeneration() &&
			condition(resource, "Available") &&
			sameCounts(resource, "replicas", "availableReplicas", "readyReplicas", "updatedReplicas")

	case jobKind:
		return condition(resource, "Complete")

	case externalSecretKind:
		return condition(resource, "Ready")

	case applicationKind:
		health, _, _ := unstructured.NestedString(resource.Object, "status", "health", "status")
		return health == "Healthy"
	}

	return true
}

// condition reports whether the status condition of the given type is "True".
func condition(resource *unstructured.Unstructured, kind string) bool {
	conditions, _, _ := unstructured.NestedSlice(resource.Object, "status", "conditions")
	for _, raw := range conditions {
		cond, _ := raw.(map[string]any)
		if cond["type"] == kind {
			return cond["status"] == "True"
		}
	}
	return false
}

// sameCounts reports whether every named status counter holds the same value.
func sameCounts(resource *unstructured.Unstructured, fields ...string) bool {
	var first int64
	for i, field := range fields {
		value, _, _ := unstructured.NestedInt64(resource.Object, "status", field)
		if i == 0 {
			first = value
			continue
		}
		if value != first {
			return false
		}
	}
	return true
}
