package sink

import (
	"cmp"
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/pkg/resource"
)

// Git writes the documents into a directory of a repository worktree and commits the result.
// Pushing is left to the caller.
type Git struct {
	Repository *git.Repository

	// Path is the directory within the worktree. It defaults to the name of the first document,
	// matching the path a GitOps application points at by default.
	Path string

	AuthorName  string
	AuthorEmail string

	// Now stamps the commit. Defaults to time.Now.
	Now func() time.Time
}

func (sink Git) Submit(ctx context.Context, docs []resource.Document) error {
	defer internal.DebugTimer(ctx, "commit resources")()

	if len(docs) == 0 {
		return internal.Warning("no resources to commit")
	}

	worktree, err := sink.Repository.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	dir := path.Clean(cmp.Or(sink.Path, docs[0].Metadata.Name))

	if err := (Dir{FS: worktree.Filesystem, Path: dir}).Submit(ctx, docs); err != nil {
		return err
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}

	var changed []string
	for file, state := range status {
		if state.Worktree == git.Unmodified || (dir != "." && !strings.HasPrefix(file, dir+"/")) {
			continue
		}
		changed = append(changed, file)
	}
	slices.Sort(changed)

	if len(changed) == 0 {
		return internal.Warning("resources are unchanged: nothing to commit")
	}

	for _, file := range changed {
		if status.File(file).Worktree == git.Deleted {
			if _, err := worktree.Remove(file); err != nil {
				return fmt.Errorf("failed to stage removal of %s: %w", file, err)
			}
			continue
		}
		if _, err := worktree.Add(file); err != nil {
			return fmt.Errorf("failed to stage %s: %w", file, err)
		}
	}

	now := time.Now
	if sink.Now != nil {
		now = sink.Now
	}

	hash, err := worktree.Commit(
		fmt.Sprintf("deploy %s", docs[0].Metadata.Name),
		&git.CommitOptions{
			Author: &object.Signature{
				Name:  cmp.Or(sink.AuthorName, "hangar"),
				Email: cmp.Or(sink.AuthorEmail, "hangar@localhost"),
				When:  now(),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	internal.Debug(ctx).Printf("committed %s\n", hash)

	return nil
}
