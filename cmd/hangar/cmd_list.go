package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/pkg/api"
	"github.com/davidmdm/hangar/pkg/inspect"
)

type ListParams struct {
	GlobalSettings
	Namespace     string
	AllNamespaces bool
	Workload      string
	Output        outputFormat
}

//go:embed cmd_list_help.txt
var listHelp string

func init() {
	listHelp = strings.TrimSpace(internal.Colorize(listHelp))
}

func GetListParams(settings GlobalSettings, args []string) (*ListParams, error) {
	flagset := flag.NewFlagSet("list", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), listHelp)
		flagset.PrintDefaults()
	}

	params := ListParams{GlobalSettings: settings, Output: outputTable}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.StringVar(&params.Namespace, "namespace", "", "namespace to list (default from config)")
	flagset.StringVar(&params.Namespace, "n", "", "shorthand for -namespace")
	flagset.BoolVar(&params.AllNamespaces, "A", false, "list across all namespaces")
	flagset.StringVar(&params.Workload, "workload", "", "only list one workload kind: deployment, job or cronjob")
	flagset.Var(&params.Output, "o", "output format: table, json or yaml")

	flagset.Parse(args)

	switch strings.ToLower(params.Workload) {
	case "", "deployment", "job", "cronjob":
	default:
		return nil, fmt.Errorf("invalid workload %q: must be one of deployment, job, cronjob", params.Workload)
	}

	return &params, nil
}

func List(ctx context.Context, params ListParams) error {
	cfg, err := params.Config()
	if err != nil {
		return err
	}

	client, err := inspector(cfg)
	if err != nil {
		return err
	}

	switch {
	case params.AllNamespaces:
		params.Namespace = ""
	case params.Namespace == "":
		params.Namespace = cfg.DefaultNamespace
	}

	return listApplications(ctx, client, params)
}

func listApplications(ctx context.Context, client api.Inspector, params ListParams) error {
	apps, err := client.List(ctx, params.Namespace)
	if err != nil {
		return err
	}

	filtered := []inspect.Application{}
	for _, app := range apps {
		if params.Workload == "" || strings.EqualFold(app.Workload, params.Workload) {
			filtered = append(filtered, app)
		}
	}

	return params.Output.write(internal.Stdout(ctx), filtered, func() table.Writer {
		tbl := table.NewWriter()
		tbl.AppendHeader(table.Row{"name", "namespace", "workload", "ready", "detail"})
		for _, app := range filtered {
			tbl.AppendRow(table.Row{app.Name, app.Namespace, app.Workload, app.Ready, app.Detail})
		}
		return tbl
	})
}
