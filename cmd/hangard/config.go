package main

import (
	"cmp"

	"github.com/davidmdm/conf"
	"github.com/spf13/pflag"

	"github.com/davidmdm/hangar/internal/log"
)

type Config struct {
	Address    string
	ConfigPath string
	GitRepoDir string
	Log        log.Options
}

// getConfig reads flags first and falls back to the environment for any flag left unset.
func getConfig(args []string) (cfg Config, err error) {
	cfg.Log = log.NewDefaultOptions()

	flagset := pflag.NewFlagSet("hangard", pflag.ContinueOnError)
	flagset.StringVar(&cfg.Address, "address", "", "address to listen on (default :8080)")
	flagset.StringVar(&cfg.ConfigPath, "config", "", "path to hangar config (default ~/.hangar/config.yaml)")
	flagset.StringVar(&cfg.GitRepoDir, "git-repo-dir", "", "commit gitops deployments into this git repository")
	cfg.Log.AddPFlags(flagset)

	if err := flagset.Parse(args); err != nil {
		return cfg, err
	}

	var env Config
	conf.Var(conf.Environ, &env.Address, "HANGARD_ADDRESS")
	conf.Var(conf.Environ, &env.ConfigPath, "HANGARD_CONFIG")
	conf.Var(conf.Environ, &env.GitRepoDir, "HANGARD_GIT_REPO_DIR")
	if err := conf.Environ.Parse(); err != nil {
		return cfg, err
	}

	cfg.Address = cmp.Or(cfg.Address, env.Address, ":8080")
	cfg.ConfigPath = cmp.Or(cfg.ConfigPath, env.ConfigPath)
	cfg.GitRepoDir = cmp.Or(cfg.GitRepoDir, env.GitRepoDir)

	return cfg, nil
}
