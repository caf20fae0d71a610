package k8s

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	kerrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/davidmdm/x/xerr"

	"github.com/davidmdm/hangar/internal"
)

const DefaultFieldManager = "hangar"

type Client struct {
	dynamic   *dynamic.DynamicClient
	clientset *kubernetes.Clientset
	mapper    *restmapper.DeferredDiscoveryRESTMapper

	FieldManager string
}

func NewClientFromKubeConfig(path string) (*Client, error) {
	restcfg, err := RestConfig(path)
	if err != nil {
		return nil, err
	}
	return NewClient(restcfg)
}

// RestConfig loads the kubeconfig at path. An empty path follows the kubectl rules:
// $KUBECONFIG, then ~/.kube/config, then the in-cluster service account.
func RestConfig(kubeconfig string) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	rules.ExplicitPath = kubeconfig

	restcfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build k8 config: %w", err)
	}
	return restcfg, nil
}

func NewClient(cfg *rest.Config) (*Client, error) {
	dynamicClient, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client component: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create k8 clientset: %w", err)
	}

	return &Client{
		dynamic:      dynamicClient,
		clientset:    clientset,
		mapper:       restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(clientset.DiscoveryClient)),
		FieldManager: DefaultFieldManager,
	}, nil
}

type ApplyResourcesOpts struct {
	SkipDryRun     bool
	ForceConflicts bool
}

// ApplyResources server-side applies every resource. Unless skipped, all resources are first applied
// as a dry run so that a rejection of any one of them leaves the cluster untouched.
func (client Client) ApplyResources(ctx context.Context, resources []*unstructured.Unstructured, opts ApplyResourcesOpts) error {
	defer internal.DebugTimer(ctx, "apply resources")()

	var errs []error

	if !opts.SkipDryRun {
		for _, resource := range resources {
			if err := client.ApplyResource(ctx, resource, ApplyOpts{DryRun: true, ForceConflicts: opts.ForceConflicts}); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", canonical(resource), err))
			}
		}
		if err := xerr.MultiErrOrderedFrom("dry run", errs...); err != nil {
			return err
		}
	}

	for _, resource := range resources {
		if err := client.ApplyResource(ctx, resource, ApplyOpts{ForceConflicts: opts.ForceConflicts}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", canonical(resource), err))
		}
	}

	return xerr.MultiErrOrderedFrom("", errs...)
}

type ApplyOpts struct {
	DryRun         bool
	ForceConflicts bool
}

func (client Client) ApplyResource(ctx context.Context, resource *unstructured.Unstructured, opts ApplyOpts) error {
	resourceInterface, err := client.GetDynamicResourceInterface(resource)
	if meta.IsNoMatchError(err) {
		return fmt.Errorf("%s is not served by the cluster: is its operator installed? %w", resource.GetAPIVersion()+"/"+resource.GetKind(), err)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve resource: %w", err)
	}

	dryRun := func() []string {
		if opts.DryRun {
			return []string{metav1.DryRunAll}
		}
		return nil
	}()

	data, err := json.Marshal(resource)
	if err != nil {
		return err
	}

	_, err = resourceInterface.Patch(
		ctx,
		resource.GetName(),
		types.ApplyPatchType,
		data,
		metav1.PatchOptions{
			FieldManager: client.FieldManager,
			Force:        &opts.ForceConflicts,
			DryRun:       dryRun,
		},
	)
	return err
}

// EnsureNamespace creates the namespace if it does not exist yet.
func (client Client) EnsureNamespace(ctx context.Context, namespace string) error {
	defer internal.DebugTimer(ctx, "ensure namespace "+namespace)()

	namespaces := client.clientset.CoreV1().Namespaces()

	if _, err := namespaces.Get(ctx, namespace, metav1.GetOptions{}); err == nil || !kerrors.IsNotFound(err) {
		return err
	}

	_, err := namespaces.Create(
		ctx,
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: namespace}},
		metav1.CreateOptions{FieldManager: client.FieldManager},
	)
	if kerrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

type WaitOptions struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (client Client) WaitForReady(ctx context.Context, resource *unstructured.Unstructured, opts WaitOptions) error {
	defer internal.DebugTimer(ctx, "waiting for "+canonical(resource)+" to become ready")()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}

	resourceInterface, err := client.GetDynamicResourceInterface(resource)
	if err != nil {
		return fmt.Errorf("failed to resolve resource: %w", err)
	}

	return wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		state, err := resourceInterface.Get(ctx, resource.GetName(), metav1.GetOptions{})
		if kerrors.IsNotFound(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to get resource state: %w", err)
		}
		return isReady(ctx, state), nil
	})
}

func (client Client) WaitForReadyMany(ctx context.Context, resources []*unstructured.Unstructured, opts WaitOptions) error {
	var errs []error
	for _, resource := range resources {
		if err := client.WaitForReady(ctx, resource, opts); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", canonical(resource), err))
		}
	}
	return xerr.MultiErrOrderedFrom("", errs...)
}

func (client Client) GetDynamicResourceInterface(resource *unstructured.Unstructured) (dynamic.ResourceInterface, error) {
	apiResource, err := client.LookupResourceMapping(resource)
	if err != nil {
		return nil, err
	}
	if apiResource.Scope.Name() == meta.RESTScopeNameNamespace {
		return client.dynamic.Resource(apiResource.Resource).Namespace(resource.GetNamespace()), nil
	}
	return client.dynamic.Resource(apiResource.Resource), nil
}

func (client *Client) LookupResourceMapping(resource *unstructured.Unstructured) (*meta.RESTMapping, error) {
	gvk := schema.FromAPIVersionAndKind(resource.GetAPIVersion(), resource.GetKind())
	return client.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
}

// canonical identifies a resource in errors as namespace.group.version.kind.name.
func canonical(resource *unstructured.Unstructured) string {
	gvk := resource.GroupVersionKind()
	return strings.ToLower(strings.Join(
		[]string{
			cmp.Or(resource.GetNamespace(), "_"),
			cmp.Or(gvk.Group, "core"),
			gvk.Version,
			gvk.Kind,
			resource.GetName(),
		},
		".",
	))
}
