package inspect

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// describe summarizes the observed state of a resource.
func describe(object *unstructured.Unstructured) (ready bool, detail string) {
	status := func(path ...string) int64 {
		value, _, _ := unstructured.NestedInt64(object.Object, append([]string{"status"}, path...)...)
		return value
	}

	switch object.GetKind() {
	case "Deployment":
		desired, found, _ := unstructured.NestedInt64(object.Object, "spec", "replicas")
		if !found {
			desired = 1
		}
		available := status("availableReplicas")
		return available >= desired, fmt.Sprintf("%d/%d available", available, desired)

	case "Job":
		switch succeeded, failed, active := status("succeeded"), status("failed"), status("active"); {
		case succeeded > 0:
			return true, "complete"
		case active > 0:
			return false, fmt.Sprintf("%d active, %d failed", active, failed)
		default:
			return false, fmt.Sprintf("%d failed", failed)
		}

	case "CronJob":
		schedule, _, _ := unstructured.NestedString(object.Object, "spec", "schedule")
		last, _, _ := unstructured.NestedString(object.Object, "status", "lastScheduleTime")
		if last == "" {
			return true, fmt.Sprintf("schedule %q, never run", schedule)
		}
		return true, fmt.Sprintf("schedule %q, last run %s", schedule, last)

	case "HorizontalPodAutoscaler":
		minReplicas, _, _ := unstructured.NestedInt64(object.Object, "spec", "minReplicas")
		maxReplicas, _, _ := unstructured.NestedInt64(object.Object, "spec", "maxReplicas")
		return true, fmt.Sprintf("%d current, %d desired (%d-%d)", status("currentReplicas"), status("desiredReplicas"), minReplicas, maxReplicas)

	case "Service":
		clusterIP, _, _ := unstructured.NestedString(object.Object, "spec", "clusterIP")
		if clusterIP == "" {
			return true, ""
		}
		return true, "cluster ip " + clusterIP

	case "ExternalSecret", "Application":
		conditions, _, _ := unstructured.NestedSlice(object.Object, "status", "conditions")
		for _, condition := range conditions {
			values, _ := condition.(map[string]any)
			if values["type"] == "Ready" {
				return values["status"] == "True", fmt.Sprint(values["reason"])
			}
		}
		health, _, _ := unstructured.NestedString(object.Object, "status", "health", "status")
		sync, _, _ := unstructured.NestedString(object.Object, "status", "sync", "status")
		if health != "" || sync != "" {
			return health == "Healthy" && sync == "Synced", fmt.Sprintf("%s, %s", sync, health)
		}
		return true, ""

	default:
		return true, ""
	}
}
