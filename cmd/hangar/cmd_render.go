package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/term"
	kyaml "k8s.io/apimachinery/pkg/util/yaml"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/internal/text"
	"github.com/davidmdm/hangar/pkg/hangar"
	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/sink"
	"github.com/davidmdm/hangar/pkg/spec"
)

type RenderParams struct {
	GlobalSettings
	File    string
	Input   io.Reader
	Out     string
	Diff    bool
	Color   bool
	Context int
}

//go:embed cmd_render_help.txt
var renderHelp string

func init() {
	renderHelp = strings.TrimSpace(internal.Colorize(renderHelp))
}

func GetRenderParams(settings GlobalSettings, source io.Reader, args []string) (*RenderParams, error) {
	flagset := flag.NewFlagSet("render", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), renderHelp)
		flagset.PrintDefaults()
	}

	params := RenderParams{GlobalSettings: settings, Input: source}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.StringVar(&params.File, "f", "", "request file (yaml or json); - reads from stdin")
	flagset.StringVar(&params.Out, "out", "", "write the resources of each request to <out>/<name>")
	flagset.BoolVar(&params.Diff, "diff", false, "show the diff against the files under --out without writing them")
	flagset.BoolVar(&params.Color, "color", term.IsTerminal(int(os.Stdout.Fd())), "use colored output in diffs")
	flagset.IntVar(&params.Context, "context", 4, "number of lines of context in diff")

	flagset.Parse(args)

	if params.File == "" {
		params.File = flagset.Arg(0)
	}
	if params.File == "" && params.Input == nil {
		return nil, fmt.Errorf("a request file is required")
	}
	if params.Diff && params.Out == "" {
		return nil, fmt.Errorf("--diff requires --out")
	}

	return &params, nil
}

func Render(ctx context.Context, params RenderParams) error {
	requests, err := params.requests()
	if err != nil {
		return err
	}

	cfg, err := params.Config()
	if err != nil {
		return err
	}

	planner := commander(cfg)

	plans := make([]hangar.Plan, len(requests))
	for i, request := range requests {
		if plans[i], err = planner.Plan(request); err != nil {
			return fmt.Errorf("%s: %w", request.Name, err)
		}
	}

	switch {
	case params.Diff:
		for _, plan := range plans {
			diff, err := diffPlan(params.Out, plan, text.Differ(params.Color), params.Context)
			if err != nil {
				return err
			}
			fmt.Fprint(internal.Stdout(ctx), diff)
		}
		return nil

	case params.Out != "":
		filesystem := osfs.New(params.Out)
		for _, plan := range plans {
			if err := (sink.Dir{FS: filesystem, Path: plan.Deployment.Name}).Submit(ctx, plan.Documents); err != nil {
				return err
			}
		}
		return nil

	default:
		var docs []resource.Document
		for _, plan := range plans {
			docs = append(docs, plan.Documents...)
		}
		return sink.Stream{}.Submit(ctx, docs)
	}
}

// requests decodes every request of the input. Documents of a YAML stream may each hold a single request or a list.
func (params RenderParams) requests() ([]spec.Request, error) {
	input := params.Input
	if params.File != "" && params.File != "-" {
		file, err := os.Open(params.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read request: %w", err)
		}
		defer file.Close()
		input = file
	}
	if input == nil {
		return nil, fmt.Errorf("no request provided on stdin")
	}

	var result []spec.Request

	decoder := kyaml.NewYAMLOrJSONDecoder(input, 4096)
	for {
		var requests spec.Requests
		if err := decoder.Decode(&requests); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode request: %w", err)
		}
		result = append(result, requests...)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no requests found")
	}

	return result, nil
}

// diffPlan compares the rendered documents against the files currently in <out>/<name>.
func diffPlan(out string, plan hangar.Plan, diff text.DiffFunc, lines int) (string, error) {
	dir := filepath.Join(out, plan.Deployment.Name)

	objects, err := resource.Unstructured(plan.Documents)
	if err != nil {
		return "", err
	}

	var (
		result   strings.Builder
		rendered []string
	)

	for i, name := range plan.FileNames() {
		path := filepath.Join(dir, name+".yaml")
		rendered = append(rendered, name+".yaml")

		current, err := readFile(path)
		if err != nil {
			return "", err
		}

		next, err := text.YAMLFile(path, objects[i].Object)
		if err != nil {
			return "", err
		}

		result.WriteString(diff(current, next, lines))
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" || slices.Contains(rendered, entry.Name()) {
			continue
		}
		current, err := readFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return "", err
		}
		result.WriteString(diff(current, text.File{Name: "/dev/null"}, lines))
	}

	return result.String(), nil
}

func readFile(path string) (text.File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return text.File{Name: "/dev/null"}, nil
	}
	if err != nil {
		return text.File{}, err
	}
	return text.File{Name: path, Content: string(data)}, nil
}
