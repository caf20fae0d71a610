package sink

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/davidmdm/hangar/internal/k8s"
	"github.com/davidmdm/hangar/pkg/resource"
)

// Applier is the subset of the cluster client the Apply sink depends on.
type Applier interface {
	EnsureNamespace(ctx context.Context, namespace string) error
	ApplyResources(ctx context.Context, resources []*unstructured.Unstructured, opts k8s.ApplyResourcesOpts) error
	WaitForReadyMany(ctx context.Context, resources []*unstructured.Unstructured, opts k8s.WaitOptions) error
}

var _ Applier = (*k8s.Client)(nil)

// Apply server-side applies the documents to a live cluster.
// Errors from the cluster are returned as they are.
type Apply struct {
	Client Applier

	CreateNamespaces bool
	SkipDryRun       bool
	ForceConflicts   bool

	// Wait for the applied resources to become ready when positive.
	Wait time.Duration
	Poll time.Duration
}

func (sink Apply) Submit(ctx context.Context, docs []resource.Document) error {
	resources, err := resource.Unstructured(docs)
	if err != nil {
		return err
	}

	if sink.CreateNamespaces {
		seen := map[string]bool{}
		for _, resource := range resources {
			namespace := resource.GetNamespace()
			if namespace == "" || seen[namespace] {
				continue
			}
			seen[namespace] = true
			if err := sink.Client.EnsureNamespace(ctx, namespace); err != nil {
				return err
			}
		}
	}

	opts := k8s.ApplyResourcesOpts{
		SkipDryRun:     sink.SkipDryRun,
		ForceConflicts: sink.ForceConflicts,
	}

	if err := sink.Client.ApplyResources(ctx, resources, opts); err != nil {
		return err
	}

	if sink.Wait > 0 {
		return sink.Client.WaitForReadyMany(ctx, resources, k8s.WaitOptions{Timeout: sink.Wait, Interval: sink.Poll})
	}

	return nil
}
