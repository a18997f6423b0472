package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root   string `yaml:"root"`
		Output string `yaml:"output"`
	} `yaml:"project"`
	Analysis struct {
		DefaultLifetime string   `yaml:"default_lifetime"`
		Skip            []string `yaml:"skip"`
		SkipExceptions  []string `yaml:"skip_exceptions"`
		Workers         int      `yaml:"workers"`
		CacheSize       int      `yaml:"cache_size"`
	} `yaml:"analysis"`
	Diagnostics struct {
		Enabled bool `yaml:"enabled"`
		// Severity maps diagnostic codes to off/info/warning/error,
		// overriding the built-in defaults per code.
		Severity map[string]string `yaml:"severity"`
	} `yaml:"diagnostics"`
	Naming struct {
		StripPrefix  string `yaml:"strip_prefix"`
		MemberPrefix string `yaml:"member_prefix"`
		MemberCase   string `yaml:"member_case"`
	} `yaml:"naming"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Project.Root = "."
	cfg.Project.Output = "digen_gen"
	cfg.Analysis.DefaultLifetime = "transient"
	cfg.Diagnostics.Enabled = true
	cfg.Naming.StripPrefix = "I"
	cfg.Naming.MemberPrefix = "_"
	cfg.Naming.MemberCase = "lower"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Overlay YAML config on the defaults; a missing file keeps them.
	cfg := Default()
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if root := os.Getenv("DIGEN_PROJECT_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if lifetime := os.Getenv("DIGEN_DEFAULT_LIFETIME"); lifetime != "" {
		cfg.Analysis.DefaultLifetime = lifetime
	}
	if level := os.Getenv("DIGEN_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}
