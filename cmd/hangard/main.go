package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/davidmdm/x/xcontext"
	"github.com/go-git/go-git/v5"
	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/davidmdm/hangar/internal/config"
	"github.com/davidmdm/hangar/internal/k8s"
	"github.com/davidmdm/hangar/internal/log"
	"github.com/davidmdm/hangar/pkg/api"
	"github.com/davidmdm/hangar/pkg/hangar"
	"github.com/davidmdm/hangar/pkg/inspect"
	"github.com/davidmdm/hangar/pkg/sink"
)

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(monitoringv1.AddToScheme(scheme))
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := getConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	rawLog := log.New(cfg.Log)
	defer rawLog.Sync()

	log.Install(rawLog)
	logger := rawLog.Sugar()

	settings, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}

	handler := api.Handler{
		Commander: hangar.Commander{Config: settings.Synth(), Defaults: settings.Defaults()},
		Log:       logger.Named("api"),
	}

	if err := connect(&handler, settings, cfg.GitRepoDir); err != nil {
		logger.Warnw("running without a cluster: deployments can only be dry run", "error", err)
	}

	ctx, cancel := xcontext.WithSignalCancelation(context.Background(), os.Interrupt)
	defer cancel()

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infow("listening", "address", cfg.Address)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// connect wires the cluster facing collaborators of the handler. On error the handler is left untouched.
func connect(handler *api.Handler, settings config.Config, gitRepoDir string) error {
	restcfg, err := k8s.RestConfig(settings.Kubeconfig)
	if err != nil {
		return err
	}

	client, err := k8s.NewClient(restcfg)
	if err != nil {
		return err
	}
	client.FieldManager = cmp.Or(settings.ToolID, k8s.DefaultFieldManager)

	reader, err := ctrlruntimeclient.New(restcfg, ctrlruntimeclient.Options{Scheme: scheme})
	if err != nil {
		return fmt.Errorf("failed to instantiate k8 client: %w", err)
	}

	var target hangar.Sink = sink.Apply{Client: client, CreateNamespaces: true}

	if gitRepoDir != "" {
		repo, err := git.PlainOpen(gitRepoDir)
		if err != nil {
			return fmt.Errorf("failed to open git repository: %w", err)
		}
		target = sink.GitOps{
			Cluster: target,
			Git: sink.Git{
				Repository:  repo,
				AuthorName:  settings.Git.AuthorName,
				AuthorEmail: settings.Git.AuthorEmail,
			},
		}
	}

	handler.Commander.Sink = target
	handler.Inspector = inspect.Inspector{
		Client: reader,
		Log:    zap.S().Named("inspect"),
		ToolID: settings.ToolID,
	}

	return nil
}
