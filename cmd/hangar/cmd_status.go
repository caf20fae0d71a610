package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/pkg/api"
	"github.com/davidmdm/hangar/pkg/inspect"
)

type StatusParams struct {
	GlobalSettings
	Name      string
	Namespace string
	Output    outputFormat
	Watch     bool
	Interval  time.Duration
}

//go:embed cmd_status_help.txt
var statusHelp string

func init() {
	statusHelp = strings.TrimSpace(internal.Colorize(statusHelp))
}

func GetStatusParams(settings GlobalSettings, args []string) (*StatusParams, error) {
	flagset := flag.NewFlagSet("status", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), statusHelp)
		flagset.PrintDefaults()
	}

	params := StatusParams{GlobalSettings: settings, Output: outputTable}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.StringVar(&params.Namespace, "namespace", "", "namespace of the deployment (default from config)")
	flagset.StringVar(&params.Namespace, "n", "", "shorthand for -namespace")
	flagset.Var(&params.Output, "o", "output format: table, json or yaml")
	flagset.BoolVar(&params.Watch, "watch", false, "poll until every resource is ready")
	flagset.DurationVar(&params.Interval, "interval", 2*time.Second, "poll interval used with -watch")

	positional, args := leadingArgs(args, 1)
	flagset.Parse(args)
	positional = append(positional, flagset.Args()...)

	if len(positional) == 0 {
		return nil, fmt.Errorf("name is required")
	}

	params.Name = positional[0]

	return &params, nil
}

func Status(ctx context.Context, params StatusParams) error {
	cfg, err := params.Config()
	if err != nil {
		return err
	}

	client, err := inspector(cfg)
	if err != nil {
		return err
	}

	if params.Namespace == "" {
		params.Namespace = cfg.DefaultNamespace
	}

	return showStatus(ctx, client, params)
}

func showStatus(ctx context.Context, client api.Inspector, params StatusParams) error {
	for {
		status, err := client.Status(ctx, params.Name, params.Namespace)
		if err != nil {
			return err
		}

		if err := params.Output.write(internal.Stdout(ctx), status, func() table.Writer { return statusTable(status) }); err != nil {
			return err
		}

		if !params.Watch || status.Ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(params.Interval):
		}
	}
}

func statusTable(status inspect.Status) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(fmt.Sprintf("%s/%s", status.Namespace, status.Name))
	tbl.AppendHeader(table.Row{"kind", "name", "namespace", "ready", "detail"})
	for _, resource := range status.Resources {
		tbl.AppendRow(table.Row{resource.Kind, resource.Name, resource.Namespace, resource.Ready, resource.Detail})
	}
	return tbl
}
