// Package sink implements the collaborators that receive a composed resource set:
// a live cluster, a directory, a git worktree or a YAML stream.
package sink

import (
	"context"
	"io"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/pkg/hangar"
	"github.com/davidmdm/hangar/pkg/resource"
)

var (
	_ hangar.Sink = Stream{}
	_ hangar.Sink = Dir{}
	_ hangar.Sink = Git{}
	_ hangar.Sink = Apply{}
	_ hangar.Sink = GitOps{}
)

// Stream writes the documents as a single "---" separated YAML stream.
// A nil Writer means the stdout carried by the context.
type Stream struct {
	Writer io.Writer
}

func (sink Stream) Submit(ctx context.Context, docs []resource.Document) error {
	w := sink.Writer
	if w == nil {
		w = internal.Stdout(ctx)
	}
	return resource.EncodeYAML(w, docs...)
}

// Partition routes the documents matching the predicate to one sink and the rest to the other.
// Either sink may be nil to drop its share. The matched share is submitted last.
func Partition(match func(resource.Document) bool, matched, rest hangar.Sink) hangar.Sink {
	return hangar.SinkFunc(func(ctx context.Context, docs []resource.Document) error {
		var yes, no []resource.Document
		for _, doc := range docs {
			if match(doc) {
				yes = append(yes, doc)
			} else {
				no = append(no, doc)
			}
		}

		if rest != nil && len(no) > 0 {
			if err := rest.Submit(ctx, no); err != nil {
				return err
			}
		}
		if matched != nil && len(yes) > 0 {
			return matched.Submit(ctx, yes)
		}
		return nil
	})
}

// OfKind matches documents by kind.
func OfKind(kinds ...string) func(resource.Document) bool {
	return func(doc resource.Document) bool {
		for _, kind := range kinds {
			if doc.Kind == kind {
				return true
			}
		}
		return false
	}
}
