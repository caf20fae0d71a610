// Package inspect reads back and tears down the resources hangar manages in a live cluster.
package inspect

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	kerrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/davidmdm/x/xerr"

	"github.com/davidmdm/hangar/pkg/synth"
)

var ErrNotFound = errors.New("deployment not found")

// Kinds hangar emits into the application namespace, in emission order.
var workloadKinds = []schema.GroupVersionKind{
	{Group: "apps", Version: "v1", Kind: "Deployment"},
	{Group: "batch", Version: "v1", Kind: "Job"},
	{Group: "batch", Version: "v1", Kind: "CronJob"},
	{Group: "", Version: "v1", Kind: "Service"},
	{Group: "autoscaling", Version: "v2", Kind: "HorizontalPodAutoscaler"},
	{Group: "monitoring.coreos.com", Version: "v1", Kind: "ServiceMonitor"},
	{Group: "monitoring.coreos.com", Version: "v1", Kind: "PodMonitor"},
	{Group: "external-secrets.io", Version: "v1beta1", Kind: "ExternalSecret"},
}

var applicationKind = schema.FromAPIVersionAndKind(synth.ApplicationAPIVersion, synth.ApplicationKind)

type Inspector struct {
	Client ctrlruntimeclient.Client
	Log    *zap.SugaredLogger

	// ToolID is the managed-by label value resources are selected by.
	ToolID string
}

type ResourceStatus struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Ready     bool   `json:"ready"`
	Detail    string `json:"detail,omitempty"`
}

type Status struct {
	Name      string           `json:"name"`
	Namespace string           `json:"namespace"`
	Ready     bool             `json:"ready"`
	Resources []ResourceStatus `json:"resources"`
}

// Status reports every resource managed for the named deployment. It fails with ErrNotFound when there are none.
func (inspector Inspector) Status(ctx context.Context, name, namespace string) (Status, error) {
	objects, err := inspector.find(ctx, name, namespace)
	if err != nil {
		return Status{}, err
	}
	if len(objects) == 0 {
		return Status{}, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, name)
	}

	status := Status{Name: name, Namespace: namespace, Ready: true}
	for _, object := range objects {
		ready, detail := describe(object)
		status.Ready = status.Ready && ready
		status.Resources = append(status.Resources, ResourceStatus{
			Kind:      object.GetKind(),
			Name:      object.GetName(),
			Namespace: object.GetNamespace(),
			Ready:     ready,
			Detail:    detail,
		})
	}

	return status, nil
}

// Teardown deletes every resource managed for the named deployment and returns what was removed.
// It fails with ErrNotFound when there was nothing to delete.
func (inspector Inspector) Teardown(ctx context.Context, name, namespace string) ([]ResourceStatus, error) {
	objects, err := inspector.find(ctx, name, namespace)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, name)
	}

	var (
		errs    []error
		removed []ResourceStatus
	)

	// Delete in reverse emission order so the GitOps application goes first and cannot resurrect the rest.
	for _, object := range slices.Backward(objects) {
		err := inspector.Client.Delete(ctx, object, ctrlruntimeclient.PropagationPolicy(metav1.DeletePropagationBackground))
		if err != nil && !kerrors.IsNotFound(err) {
			errs = append(errs, fmt.Errorf("failed to delete %s %s/%s: %w", object.GetKind(), object.GetNamespace(), object.GetName(), err))
			continue
		}
		inspector.log().Infow("deleted resource", "kind", object.GetKind(), "namespace", object.GetNamespace(), "name", object.GetName())
		removed = append(removed, ResourceStatus{Kind: object.GetKind(), Name: object.GetName(), Namespace: object.GetNamespace()})
	}

	return removed, xerr.MultiErrOrderedFrom("teardown", errs...)
}

type Application struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Workload  string `json:"workload"`
	Ready     bool   `json:"ready"`
	Detail    string `json:"detail,omitempty"`
}

// List returns one entry per managed workload. An empty namespace means all namespaces.
func (inspector Inspector) List(ctx context.Context, namespace string) ([]Application, error) {
	var apps []Application

	for _, gvk := range workloadKinds[:3] {
		objects, err := inspector.list(ctx, gvk, namespace, ctrlruntimeclient.MatchingLabels{synth.LabelManagedBy: inspector.toolID()})
		if err != nil {
			return nil, err
		}
		for _, object := range objects {
			ready, detail := describe(object)
			apps = append(apps, Application{
				Name:      cmp.Or(object.GetLabels()[synth.LabelApp], object.GetName()),
				Namespace: object.GetNamespace(),
				Workload:  object.GetKind(),
				Ready:     ready,
				Detail:    detail,
			})
		}
	}

	slices.SortFunc(apps, func(a, b Application) int {
		return cmp.Or(cmp.Compare(a.Namespace, b.Namespace), cmp.Compare(a.Name, b.Name))
	})

	return apps, nil
}

func (inspector Inspector) find(ctx context.Context, name, namespace string) ([]*unstructured.Unstructured, error) {
	selector := ctrlruntimeclient.MatchingLabels{
		synth.LabelApp:       name,
		synth.LabelManagedBy: inspector.toolID(),
	}

	var result []*unstructured.Unstructured
	for _, gvk := range workloadKinds {
		objects, err := inspector.list(ctx, gvk, namespace, selector)
		if err != nil {
			return nil, err
		}
		result = append(result, objects...)
	}

	// Requests may place their Application in any controller namespace, so all of them are searched.
	applications, err := inspector.list(ctx, applicationKind, "", selector)
	if err != nil {
		return nil, err
	}

	for _, app := range applications {
		destination, _, _ := unstructured.NestedString(app.Object, "spec", "destination", "namespace")
		if destination == namespace {
			result = append(result, app)
		}
	}

	return result, nil
}

func (inspector Inspector) list(ctx context.Context, gvk schema.GroupVersionKind, namespace string, selector ctrlruntimeclient.MatchingLabels) ([]*unstructured.Unstructured, error) {
	var list unstructured.UnstructuredList
	list.SetGroupVersionKind(gvk.GroupVersion().WithKind(gvk.Kind + "List"))

	opts := []ctrlruntimeclient.ListOption{selector}
	if namespace != "" {
		opts = append(opts, ctrlruntimeclient.InNamespace(namespace))
	}

	if err := inspector.Client.List(ctx, &list, opts...); err != nil {
		if meta.IsNoMatchError(err) {
			inspector.log().Debugw("skipping kind not served by cluster", "kind", gvk.String())
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", gvk.Kind, err)
	}

	result := make([]*unstructured.Unstructured, len(list.Items))
	for i := range list.Items {
		item := list.Items[i]
		item.SetGroupVersionKind(gvk)
		result[i] = &item
	}

	slices.SortFunc(result, func(a, b *unstructured.Unstructured) int {
		return cmp.Or(cmp.Compare(a.GetNamespace(), b.GetNamespace()), cmp.Compare(a.GetName(), b.GetName()))
	})

	return result, nil
}

func (inspector Inspector) toolID() string {
	return cmp.Or(inspector.ToolID, "hangar")
}

func (inspector Inspector) log() *zap.SugaredLogger {
	if inspector.Log == nil {
		return zap.NewNop().Sugar()
	}
	return inspector.Log
}
