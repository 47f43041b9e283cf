// Package config loads serdegen settings from defaults, an optional
// serdegen.toml, SERDEGEN_* environment variables and command flags, in
// increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/internal/encoding"
)

const (
	// FileName is the project config file searched for from the working
	// directory upwards.
	FileName = "serdegen.toml"

	// EnvPrefix prefixes environment overrides: SERDEGEN_MODULE,
	// SERDEGEN_LOG_JSON.
	EnvPrefix = "SERDEGEN"
)

// Settings is the merged configuration.
type Settings struct {
	Targets     []string `mapstructure:"target"`
	Encodings   []string `mapstructure:"encodings"`
	Module      string   `mapstructure:"module"`
	Annotations bool     `mapstructure:"annotations"`
	Out         string   `mapstructure:"out"`
	Runtime     bool     `mapstructure:"runtime"`
	Cache       string   `mapstructure:"cache"`

	// RuntimeImport is the Go import prefix of the runtime packages.
	RuntimeImport string `mapstructure:"runtime_import"`

	// Comments and External name YAML side files. Viper folds key case
	// and splits keys on dots, so location-keyed and import-path-keyed
	// maps cannot live in the TOML file itself.
	Comments string `mapstructure:"comments"`
	External string `mapstructure:"external"`

	Log LogSettings `mapstructure:"log"`
}

// LogSettings controls logger construction.
type LogSettings struct {
	JSON bool `mapstructure:"json"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("target", []string{string(codegen.Go)})
	v.SetDefault("encodings", []string{string(encoding.Canonical)})
	v.SetDefault("module", "")
	v.SetDefault("annotations", false)
	v.SetDefault("out", ".")
	v.SetDefault("runtime", true)
	v.SetDefault("cache", "")
	v.SetDefault("runtime_import", codegen.DefaultGoRuntime)
	v.SetDefault("comments", "")
	v.SetDefault("external", "")
	v.SetDefault("log.json", false)
}

// New returns a viper instance with defaults and environment binding.
// With a non-empty configPath that file must exist; otherwise the
// nearest serdegen.toml from the working directory upwards is read when
// present.
func New(configPath string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if configPath == "" {
		configPath = findProjectConfig()
		if configPath == "" {
			return v, nil
		}
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", configPath)
	}
	return v, nil
}

// Load unmarshals v into Settings. Relative side-file paths are resolved
// against the config file's directory.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if used := v.ConfigFileUsed(); used != "" {
		base := filepath.Dir(used)
		s.Comments = relativeTo(base, s.Comments)
		s.External = relativeTo(base, s.External)
	}
	return &s, nil
}

func relativeTo(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// findProjectConfig walks up from the working directory looking for
// FileName. Returns "" when none is found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// TargetList parses the configured targets, dropping repeats.
func (s *Settings) TargetList() ([]codegen.Target, error) {
	if len(s.Targets) == 0 {
		return nil, errors.WithHint(errors.New("no target configured"), "pass --target go|rust|python3")
	}
	seen := make(map[codegen.Target]bool, len(s.Targets))
	var out []codegen.Target
	for _, name := range splitList(s.Targets) {
		t, err := codegen.ParseTarget(name)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// EncodingList parses the configured encodings.
func (s *Settings) EncodingList() ([]encoding.Encoding, error) {
	var out []encoding.Encoding
	for _, name := range splitList(s.Encodings) {
		e, err := encoding.Parse(name)
		if err != nil {
			return nil, errors.WithHint(err, "pass --encoding canonical|noncanonical")
		}
		out = append(out, e)
	}
	return out, nil
}

// splitList accepts both repeated values and comma-separated ones, the
// form environment variables take.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Codegen builds the generator config for target.
func (s *Settings) Codegen(target codegen.Target) (codegen.Config, error) {
	encs, err := s.EncodingList()
	if err != nil {
		return codegen.Config{}, err
	}
	cfg := codegen.Config{
		Target:        target,
		ModuleName:    s.Module,
		Encodings:     encs,
		Annotations:   s.Annotations,
		RuntimeImport: s.RuntimeImport,
	}
	if s.Comments != "" {
		if err := readYAML(s.Comments, &cfg.Comments); err != nil {
			return codegen.Config{}, err
		}
	}
	if s.External != "" {
		if err := readYAML(s.External, &cfg.ExternalDefinitions); err != nil {
			return codegen.Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return codegen.Config{}, err
	}
	return cfg, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}
