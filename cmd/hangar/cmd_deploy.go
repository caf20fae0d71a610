package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/internal/config"
	"github.com/davidmdm/hangar/pkg/hangar"
	"github.com/davidmdm/hangar/pkg/sink"
	"github.com/davidmdm/hangar/pkg/spec"
)

type DeployParams struct {
	GlobalSettings
	Request spec.Request

	DryRun     bool
	Out        string
	GitRepoDir string

	SkipDryRun       bool
	ForceConflicts   bool
	CreateNamespaces bool
	Wait             time.Duration
	Poll             time.Duration
}

//go:embed cmd_deploy_help.txt
var deployHelp string

func init() {
	deployHelp = strings.TrimSpace(internal.Colorize(deployHelp))
}

func GetDeployParams(settings GlobalSettings, args []string) (*DeployParams, error) {
	flagset := flag.NewFlagSet("deploy", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), deployHelp)
		flagset.PrintDefaults()
	}

	params := DeployParams{GlobalSettings: settings}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.StringVar(&params.Request.Image, "image", "", "container image to run")
	flagset.BoolVar(&params.DryRun, "dry-run", false, "print the resources to stdout instead of applying them")
	flagset.StringVar(&params.Out, "out", "", "write the resources to <out>/<name> instead of applying them")
	flagset.StringVar(&params.GitRepoDir, "git-repo-dir", "", "commit the resources into this git repository; the gitops application is applied to the cluster")
	flagset.BoolVar(&params.SkipDryRun, "skip-dry-run", false, "disables running dry run to resources before applying them")
	flagset.BoolVar(&params.ForceConflicts, "force-conflicts", false, "force apply changes on field manager conflicts")
	flagset.BoolVar(&params.CreateNamespaces, "create-namespaces", true, "create target namespaces that do not exist")
	flagset.DurationVar(&params.Wait, "wait", 0, "time to wait for the resources to be ready")
	flagset.DurationVar(&params.Poll, "poll", 2*time.Second, "interval to poll resource state at. Used with --wait")

	options := RegisterOptionFlags(flagset, deployOptions)

	args, command := internal.CutArgs(args)

	positional, args := leadingArgs(args, 2)
	flagset.Parse(args)
	positional = append(positional, flagset.Args()...)

	if len(positional) < 2 {
		return nil, fmt.Errorf("kind and name are required as positional args")
	}
	if len(positional) > 2 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(positional[2:], " "))
	}

	params.Request.Kind = positional[0]
	params.Request.Name = positional[1]
	params.Request.Options = options()

	if len(command) > 0 {
		params.Request.Options["command"] = command
	}

	return &params, nil
}

// leadingArgs splits off up to n positional arguments that precede the first flag.
func leadingArgs(args []string, n int) (positional, rest []string) {
	for len(args) > 0 && len(positional) < n && !strings.HasPrefix(args[0], "-") {
		positional, args = append(positional, args[0]), args[1:]
	}
	return positional, args
}

func Deploy(ctx context.Context, params DeployParams) error {
	cfg, err := params.Config()
	if err != nil {
		return err
	}

	plan, err := commander(cfg).Plan(params.Request)
	if err != nil {
		return err
	}

	target, err := params.sink(cfg, plan)
	if err != nil {
		return err
	}

	if err := target.Submit(ctx, plan.Documents); err != nil {
		return err
	}

	if params.DryRun && params.Out == "" {
		return nil
	}

	return writeSummary(internal.Stdout(ctx), plan)
}

func (params DeployParams) sink(cfg config.Config, plan hangar.Plan) (hangar.Sink, error) {
	if params.Out != "" {
		return sink.Dir{FS: osfs.New(params.Out), Path: plan.Deployment.Name}, nil
	}
	if params.DryRun {
		return sink.Stream{}, nil
	}

	var committer *sink.Git
	if params.GitRepoDir != "" {
		repo, err := git.PlainOpen(params.GitRepoDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open git repository: %w", err)
		}
		committer = &sink.Git{
			Repository:  repo,
			AuthorName:  cfg.Git.AuthorName,
			AuthorEmail: cfg.Git.AuthorEmail,
		}
		if !plan.Deployment.GitOps.Enabled {
			return *committer, nil
		}
	}

	client, err := applyClient(cfg)
	if err != nil {
		return nil, err
	}

	apply := sink.Apply{
		Client:           client,
		CreateNamespaces: params.CreateNamespaces,
		SkipDryRun:       params.SkipDryRun,
		ForceConflicts:   params.ForceConflicts,
		Wait:             params.Wait,
		Poll:             params.Poll,
	}

	if committer == nil {
		return apply, nil
	}

	return sink.GitOps{Cluster: apply, Git: *committer}, nil
}

func writeSummary(w io.Writer, plan hangar.Plan) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleRounded)
	tbl.AppendHeader(table.Row{"file", "kind", "name", "namespace"})

	for i, name := range plan.FileNames() {
		doc := plan.Documents[i]
		tbl.AppendRow(table.Row{name + ".yaml", doc.Kind, doc.Metadata.Name, doc.Metadata.Namespace})
	}

	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
