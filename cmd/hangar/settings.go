package main

import (
	"cmp"
	"flag"
	"fmt"

	"go.uber.org/zap"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/davidmdm/hangar/internal/config"
	"github.com/davidmdm/hangar/internal/k8s"
	"github.com/davidmdm/hangar/pkg/hangar"
	"github.com/davidmdm/hangar/pkg/inspect"
)

type GlobalSettings struct {
	ConfigPath     string
	KubeConfigPath string
	Debug          bool
}

func RegisterGlobalFlags(flagset *flag.FlagSet, settings *GlobalSettings) {
	flagset.StringVar(&settings.ConfigPath, "config", settings.ConfigPath, "path to hangar config (default ~/.hangar/config.yaml)")
	flagset.StringVar(&settings.KubeConfigPath, "kubeconfig", settings.KubeConfigPath, "path to kube config (overrides the config file)")
	flagset.BoolVar(&settings.Debug, "debug", settings.Debug, "print debug timings to stderr")
}

func (settings GlobalSettings) Config() (config.Config, error) {
	cfg, err := config.Load(settings.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Kubeconfig = cmp.Or(settings.KubeConfigPath, cfg.Kubeconfig)
	return cfg, nil
}

func commander(cfg config.Config) hangar.Commander {
	return hangar.Commander{Config: cfg.Synth(), Defaults: cfg.Defaults()}
}

func applyClient(cfg config.Config) (*k8s.Client, error) {
	client, err := k8s.NewClientFromKubeConfig(cfg.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate k8 client: %w", err)
	}
	client.FieldManager = cmp.Or(cfg.ToolID, k8s.DefaultFieldManager)
	return client, nil
}

func inspector(cfg config.Config) (inspect.Inspector, error) {
	restcfg, err := k8s.RestConfig(cfg.Kubeconfig)
	if err != nil {
		return inspect.Inspector{}, err
	}

	client, err := ctrlruntimeclient.New(restcfg, ctrlruntimeclient.Options{})
	if err != nil {
		return inspect.Inspector{}, fmt.Errorf("failed to instantiate k8 client: %w", err)
	}

	return inspect.Inspector{
		Client: client,
		Log:    zap.S(),
		ToolID: cfg.ToolID,
	}, nil
}
