package sink

import (
	"context"
	"slices"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/pkg/hangar"
	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/synth"
)

// GitOps commits the resources of a GitOps deployment under the source path of its Application
// and submits only the Application to Cluster. A resource set without an Application goes to Cluster as a whole.
type GitOps struct {
	Cluster hangar.Sink
	Git     Git
}

func (sink GitOps) Submit(ctx context.Context, docs []resource.Document) error {
	isApplication := OfKind(synth.ApplicationKind)

	idx := slices.IndexFunc(docs, isApplication)
	if idx < 0 {
		return sink.Cluster.Submit(ctx, docs)
	}

	committer := sink.Git
	if spec, ok := docs[idx].Spec.(synth.ApplicationSpec); ok && spec.Source.Path != "" {
		committer.Path = spec.Source.Path
	}

	// An unchanged worktree still gets its Application applied.
	var warning error
	commit := hangar.SinkFunc(func(ctx context.Context, docs []resource.Document) error {
		err := committer.Submit(ctx, docs)
		if internal.IsWarning(err) {
			warning = err
			return nil
		}
		return err
	})

	if err := Partition(isApplication, sink.Cluster, commit).Submit(ctx, docs); err != nil {
		return err
	}

	return warning
}
