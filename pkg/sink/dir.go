package sink

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/davidmdm/x/xerr"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/pkg/hangar"
	"github.com/davidmdm/hangar/pkg/resource"
)

var numbered = regexp.MustCompile(`^\d{2}-[a-z0-9]+-[a-z0-9.-]+\.yaml$`)

// Dir writes one <NN>-<kind>-<name>.yaml file per document under Path.
// Numbered files left over from a previous submission are removed first so the directory
// always reflects exactly the last resource set.
type Dir struct {
	FS   billy.Filesystem
	Path string
}

func DirOS(path string) Dir {
	return Dir{FS: osfs.New(path), Path: "."}
}

func (sink Dir) Submit(ctx context.Context, docs []resource.Document) error {
	defer internal.DebugTimer(ctx, "write resources to "+sink.FS.Join(sink.FS.Root(), sink.Path))()

	objects, err := resource.Unstructured(docs)
	if err != nil {
		return err
	}

	if err := sink.FS.MkdirAll(sink.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	entries, err := sink.FS.ReadDir(sink.Path)
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !numbered.MatchString(entry.Name()) {
			continue
		}
		if err := sink.FS.Remove(sink.FS.Join(sink.Path, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", entry.Name(), err)
		}
	}

	var errs []error
	for i, name := range hangar.FileNames(docs) {
		if err := internal.WriteYAML(sink.FS, sink.FS.Join(sink.Path, name+".yaml"), objects[i].Object); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return xerr.MultiErrOrderedFrom("failed to write resource(s)", errs...)
}
