// Package resource holds the generic cluster resource document produced by the synthesizers
// and the serialization stage that turns documents into unstructured objects and YAML.
package resource

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

type Metadata struct {
	Name        string            `json:"name"`
	Namespace   string            `json:"namespace,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

type Resource[T any] struct {
	APIVersion string   `json:"apiVersion"`
	Kind       string   `json:"kind"`
	Metadata   Metadata `json:"metadata"`
	Spec       T        `json:"spec"`
}

// Document is a resource whose spec is any typed payload: k8s.io/api types,
// prometheus-operator types or the local CRD structs of the synth package.
type Document = Resource[any]

func (resource Resource[T]) GroupVersionKind() schema.GroupVersionKind {
	return schema.FromAPIVersionAndKind(resource.APIVersion, resource.Kind)
}

// Canonical returns a stable identifier of the form namespace.group.version.kind.name.
func (resource Resource[T]) Canonical() string {
	gvk := resource.GroupVersionKind()
	return strings.ToLower(strings.Join(
		[]string{
			cmp.Or(resource.Metadata.Namespace, "_"),
			cmp.Or(gvk.Group, "core"),
			gvk.Version,
			gvk.Kind,
			resource.Metadata.Name,
		},
		".",
	))
}

// Unstructured converts the document into the form consumed by the dynamic client.
// Null values left behind by typed payloads (such as an unset creationTimestamp) are dropped.
func (resource Resource[T]) Unstructured() (*unstructured.Unstructured, error) {
	data, err := json.Marshal(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", resource.Canonical(), err)
	}

	var result unstructured.Unstructured
	if err := result.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", resource.Canonical(), err)
	}

	result.Object = prune(result.Object).(map[string]any)

	return &result, nil
}

func Unstructured[T any](resources []Resource[T]) ([]*unstructured.Unstructured, error) {
	result := make([]*unstructured.Unstructured, len(resources))
	for i, resource := range resources {
		value, err := resource.Unstructured()
		if err != nil {
			return nil, err
		}
		result[i] = value
	}
	return result, nil
}

func prune(value any) any {
	switch value := value.(type) {
	case map[string]any:
		for key, elem := range value {
			if elem == nil {
				delete(value, key)
				continue
			}
			value[key] = prune(elem)
		}
		return value
	case []any:
		for i, elem := range value {
			value[i] = prune(elem)
		}
		return value
	default:
		return value
	}
}
