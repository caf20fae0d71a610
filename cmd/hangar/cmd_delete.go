package main

import (
	"bufio"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/pkg/api"
)

type DeleteParams struct {
	GlobalSettings
	Name      string
	Namespace string
	Force     bool

	// Confirm is read for the interactive confirmation. Nil means no terminal is attached.
	Confirm io.Reader
}

//go:embed cmd_delete_help.txt
var deleteHelp string

func init() {
	deleteHelp = strings.TrimSpace(internal.Colorize(deleteHelp))
}

func GetDeleteParams(settings GlobalSettings, args []string) (*DeleteParams, error) {
	flagset := flag.NewFlagSet("delete", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), deleteHelp)
		flagset.PrintDefaults()
	}

	params := DeleteParams{GlobalSettings: settings}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		params.Confirm = os.Stdin
	}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.StringVar(&params.Namespace, "namespace", "", "namespace of the deployment (default from config)")
	flagset.StringVar(&params.Namespace, "n", "", "shorthand for -namespace")
	flagset.BoolVar(&params.Force, "force", false, "delete without asking for confirmation")

	positional, args := leadingArgs(args, 1)
	flagset.Parse(args)
	positional = append(positional, flagset.Args()...)

	if len(positional) == 0 {
		return nil, fmt.Errorf("name is required")
	}

	params.Name = positional[0]

	return &params, nil
}

func Delete(ctx context.Context, params DeleteParams) error {
	cfg, err := params.Config()
	if err != nil {
		return err
	}

	if params.Namespace == "" {
		params.Namespace = cfg.DefaultNamespace
	}

	if err := params.confirm(ctx); err != nil {
		return err
	}

	client, err := inspector(cfg)
	if err != nil {
		return err
	}

	return teardown(ctx, client, params)
}

func (params DeleteParams) confirm(ctx context.Context) error {
	if params.Force {
		return nil
	}
	if params.Confirm == nil {
		return fmt.Errorf("refusing to delete %s/%s without a terminal: use -force", params.Namespace, params.Name)
	}

	fmt.Fprintf(internal.Stderr(ctx), "delete every resource of %s in namespace %s? [y/N] ", params.Name, params.Namespace)

	answer, _ := bufio.NewReader(params.Confirm).ReadString('\n')
	if answer = strings.ToLower(strings.TrimSpace(answer)); answer != "y" && answer != "yes" {
		return internal.Warning("aborted")
	}

	return nil
}

func teardown(ctx context.Context, client api.Inspector, params DeleteParams) error {
	removed, err := client.Teardown(ctx, params.Name, params.Namespace)
	for _, resource := range removed {
		fmt.Fprintf(internal.Stdout(ctx), "deleted %s %s/%s\n", strings.ToLower(resource.Kind), resource.Namespace, resource.Name)
	}
	return err
}
