package main

import (
	"cmp"
	"context"
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/davidmdm/hangar/internal"
)

var reportedModules = []string{
	"k8s.io/client-go",
	"sigs.k8s.io/controller-runtime",
	"github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring",
}

func Version(ctx context.Context) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("build information is not available")
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleRounded)

	tbl.AppendRow(table.Row{"hangar", cmp.Or(info.Main.Version, "(devel)")})

	for _, mod := range info.Deps {
		if !slices.Contains(reportedModules, mod.Path) {
			continue
		}
		tbl.AppendRow(table.Row{mod.Path, mod.Version})
	}

	_, err := fmt.Fprintln(internal.Stdout(ctx), tbl.Render())
	return err
}
