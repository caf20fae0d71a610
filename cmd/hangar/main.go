package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/davidmdm/x/xcontext"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/internal/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		if internal.IsWarning(err) {
			return
		}
		os.Exit(1)
	}
}

//go:embed cmd_help.txt
var rootHelp string

func init() {
	rootHelp = strings.TrimSpace(internal.Colorize(rootHelp))
}

func run() error {
	ctx, done := xcontext.WithSignalCancelation(context.Background(), syscall.SIGINT)
	defer done()

	var settings GlobalSettings
	RegisterGlobalFlags(flag.CommandLine, &settings)

	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), rootHelp)
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}

	flag.Parse()

	if len(flag.Args()) == 0 {
		flag.Usage()
		return fmt.Errorf("no command provided")
	}

	ctx = internal.WithDebugFlag(ctx, &settings.Debug)

	log.Install(log.New(log.Options{Debug: settings.Debug, Format: log.FormatConsole}))

	subcmdArgs := flag.Args()[1:]

	switch cmd := flag.Arg(0); cmd {
	case "deploy", "up":
		{
			params, err := GetDeployParams(settings, subcmdArgs)
			if err != nil {
				return err
			}
			return Deploy(ctx, *params)
		}
	case "render", "template":
		{
			var source io.Reader
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				source = os.Stdin
			}
			params, err := GetRenderParams(settings, source, subcmdArgs)
			if err != nil {
				return err
			}
			return Render(ctx, *params)
		}
	case "status":
		{
			params, err := GetStatusParams(settings, subcmdArgs)
			if err != nil {
				return err
			}
			return Status(ctx, *params)
		}
	case "delete", "down":
		{
			params, err := GetDeleteParams(settings, subcmdArgs)
			if err != nil {
				return err
			}
			return Delete(ctx, *params)
		}
	case "list", "ls":
		{
			params, err := GetListParams(settings, subcmdArgs)
			if err != nil {
				return err
			}
			return List(ctx, *params)
		}
	case "version":
		{
			return Version(ctx)
		}
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}
