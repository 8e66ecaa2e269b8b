package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath       = "CI_PREP_CONFIG"
	EnvRepository       = "CI_PREP_REPOSITORY"
	EnvMergeTrainPrefix = "CI_PREP_MERGE_TRAIN_PREFIX"
)

// Config holds repository policy values for the planner.
type Config struct {
	Repository       string `yaml:"repository"`
	MergeTrainPrefix string `yaml:"merge_train_prefix"`
	OutputKey        string `yaml:"output_key"`
	CommitSHAEnv     string `yaml:"commit_sha_env"`
	DefaultRunner    string `yaml:"default_runner"`
	// Runners overrides runner labels keyed by "os/arch".
	Runners map[string]string `yaml:"runners"`
	// Preview maps a preview bundle name to its build-output directory,
	// relative to the workspace root.
	Preview map[string]string `yaml:"preview"`
}

// Default returns the built-in policy.
func Default() Config {
	return Config{
		Repository:       "scufflecloud/scuffle",
		MergeTrainPrefix: "refs/heads/automation/brawl/",
		OutputKey:        "matrix",
		CommitSHAEnv:     "SHA",
		DefaultRunner:    "ubuntu-24.04",
		Runners: map[string]string{
			"linux/x86_64":   "ubicloud-standard-8-ubuntu-2404",
			"linux/arm64":    "ubicloud-standard-8-arm-ubuntu-2404",
			"windows/x86_64": "windows-2025",
			"windows/arm64":  "windows-11-arm",
			"macos/x86_64":   "macos-13",
			"macos/arm64":    "macos-15",
		},
		Preview: map[string]string{
			"rustdoc":   "target/doc",
			"docs":      "docs/build",
			"dashboard": "cloud/dashboard/build",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if any), then environment overrides. An empty path falls back to
// CI_PREP_CONFIG.
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if path == "" {
		path = getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := merge(&cfg, data); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(getenv(EnvRepository)); v != "" {
		cfg.Repository = v
	}
	if v := strings.TrimSpace(getenv(EnvMergeTrainPrefix)); v != "" {
		cfg.MergeTrainPrefix = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func merge(cfg *Config, data []byte) error {
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	if file.Repository != "" {
		cfg.Repository = file.Repository
	}
	if file.MergeTrainPrefix != "" {
		cfg.MergeTrainPrefix = file.MergeTrainPrefix
	}
	if file.OutputKey != "" {
		cfg.OutputKey = file.OutputKey
	}
	if file.CommitSHAEnv != "" {
		cfg.CommitSHAEnv = file.CommitSHAEnv
	}
	if file.DefaultRunner != "" {
		cfg.DefaultRunner = file.DefaultRunner
	}
	for key, label := range file.Runners {
		cfg.Runners[key] = label
	}
	// A preview entry with an empty path disables that bundle.
	for bundle, dir := range file.Preview {
		if dir == "" {
			delete(cfg.Preview, bundle)
			continue
		}
		cfg.Preview[bundle] = dir
	}
	return nil
}

// Validate checks the configuration for values the planner cannot use.
func (c Config) Validate() error {
	var errs []error
	if !strings.Contains(c.Repository, "/") {
		errs = append(errs, fmt.Errorf("repository %q must be owner/name", c.Repository))
	}
	if c.MergeTrainPrefix == "" || !strings.HasSuffix(c.MergeTrainPrefix, "/") {
		errs = append(errs, fmt.Errorf("merge_train_prefix %q must be non-empty and end with /", c.MergeTrainPrefix))
	}
	if c.OutputKey == "" || strings.ContainsAny(c.OutputKey, "=\n") {
		errs = append(errs, fmt.Errorf("output_key %q is not a valid step output name", c.OutputKey))
	}
	if c.CommitSHAEnv == "" {
		errs = append(errs, errors.New("commit_sha_env is required"))
	}
	if c.DefaultRunner == "" {
		errs = append(errs, errors.New("default_runner is required"))
	}

	known := Default().Runners
	keys := make([]string, 0, len(c.Runners))
	for key := range c.Runners {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			errs = append(errs, fmt.Errorf("runners: unknown platform %q", key))
		} else if c.Runners[key] == "" {
			errs = append(errs, fmt.Errorf("runners: empty label for %q", key))
		}
	}
	return errors.Join(errs...)
}
