// Package config loads the hangar CLI configuration from ~/.hangar/config.yaml and HANGAR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/davidmdm/hangar/pkg/spec"
	"github.com/davidmdm/hangar/pkg/synth"
)

type Config struct {
	Kubeconfig            string          `mapstructure:"kubeconfig"`
	DefaultNamespace      string          `mapstructure:"default_namespace"`
	ArgoCDNamespace       string          `mapstructure:"argocd_namespace"`
	SecretStore           string          `mapstructure:"secret_store"`
	SecretRefreshInterval string          `mapstructure:"secret_refresh_interval"`
	ToolID                string          `mapstructure:"tool_id"`
	DestinationServer     string          `mapstructure:"destination_server"`
	Resources             ResourcesConfig `mapstructure:"resources"`
	Git                   GitConfig       `mapstructure:"git"`
}

type ResourcesConfig struct {
	CPURequest    string `mapstructure:"cpu_request"`
	CPULimit      string `mapstructure:"cpu_limit"`
	MemoryRequest string `mapstructure:"memory_request"`
	MemoryLimit   string `mapstructure:"memory_limit"`
}

type GitConfig struct {
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
}

// DefaultPath is ~/.hangar/config.yaml, or empty when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hangar", "config.yaml")
}

// Load reads the configuration file at path, then applies environment overrides.
// An empty path means DefaultPath, which may be absent.
func Load(path string) (Config, error) {
	v := viper.New()

	defaults := synth.DefaultConfig()

	v.SetDefault("kubeconfig", "")
	v.SetDefault("default_namespace", "default")
	v.SetDefault("argocd_namespace", "argocd")
	v.SetDefault("secret_store", "gcp-secret-store")
	v.SetDefault("secret_refresh_interval", "1h")
	v.SetDefault("tool_id", defaults.ToolID)
	v.SetDefault("destination_server", defaults.DestinationServer)
	v.SetDefault("resources.cpu_request", defaults.DefaultResources.CPURequest)
	v.SetDefault("resources.cpu_limit", defaults.DefaultResources.CPULimit)
	v.SetDefault("resources.memory_request", defaults.DefaultResources.MemoryRequest)
	v.SetDefault("resources.memory_limit", defaults.DefaultResources.MemoryLimit)
	v.SetDefault("git.author_name", "hangar")
	v.SetDefault("git.author_email", "hangar@localhost")

	optional := path == ""
	if optional {
		path = DefaultPath()
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !(optional && errors.Is(err, fs.ErrNotExist)) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("HANGAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func (cfg Config) Synth() synth.Config {
	return synth.Config{
		ToolID: cfg.ToolID,
		DefaultResources: spec.Resources{
			CPURequest:    cfg.Resources.CPURequest,
			CPULimit:      cfg.Resources.CPULimit,
			MemoryRequest: cfg.Resources.MemoryRequest,
			MemoryLimit:   cfg.Resources.MemoryLimit,
		},
		DestinationServer: cfg.DestinationServer,
	}
}

func (cfg Config) Defaults() spec.Defaults {
	return spec.Defaults{
		Namespace:             cfg.DefaultNamespace,
		GitOpsNamespace:       cfg.ArgoCDNamespace,
		SecretStore:           cfg.SecretStore,
		SecretRefreshInterval: cfg.SecretRefreshInterval,
	}
}
