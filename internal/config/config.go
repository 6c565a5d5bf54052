// Package config resolves scan settings from layered sources:
//
//  1. built-in defaults
//  2. ~/.mcp-sentinel/config.yaml (global)
//  3. ./.mcp-sentinel.yaml, or the file named by --config
//  4. MCP_SENTINEL_* environment variables
//  5. flags set explicitly on the command line
//
// Later layers win, except exclude globs from flags, which are added to the
// globs from files and env. Missing global and local files are ignored; an explicit
// --config file must exist.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/beejak/MCP-Sentinel/internal/intake"
	"github.com/beejak/MCP-Sentinel/internal/logging"
	"github.com/beejak/MCP-Sentinel/internal/model"
	"github.com/beejak/MCP-Sentinel/internal/scan"
	"github.com/beejak/MCP-Sentinel/internal/suppress"
)

const (
	EnvPrefix     = "MCP_SENTINEL"
	LocalFileName = ".mcp-sentinel.yaml"

	globalDirName  = ".mcp-sentinel"
	globalFileName = "config.yaml"
)

// Output formats accepted by the scan command.
const (
	OutputTerminal = "terminal"
	OutputJSON     = "json"
	OutputSARIF    = "sarif"
	OutputMarkdown = "markdown"
)

type Config struct {
	Exclude          []string `mapstructure:"exclude" yaml:"exclude" validate:"dive,required"`
	Workers          int      `mapstructure:"workers" yaml:"workers" validate:"gte=0,lte=256"`
	FailOn           string   `mapstructure:"fail_on" yaml:"fail_on,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Output           string   `mapstructure:"output" yaml:"output" validate:"oneof=terminal json sarif markdown"`
	OutputFile       string   `mapstructure:"output_file" yaml:"output_file,omitempty"`
	LogLevel         string   `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	Redact           bool     `mapstructure:"redact" yaml:"redact"`
	IgnoreFile       string   `mapstructure:"ignore_file" yaml:"ignore_file"`
	SuppressionsFile string   `mapstructure:"suppressions_file" yaml:"suppressions_file"`
	MaxFileBytes     int64    `mapstructure:"max_file_bytes" yaml:"max_file_bytes" validate:"gte=-1"`
	OTLPEndpoint     string   `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint,omitempty" validate:"omitempty,hostname_port"`
	OTLPInsecure     bool     `mapstructure:"otlp_insecure" yaml:"otlp_insecure,omitempty"`
}

// Default returns the settings used when no layer overrides them.
func Default() Config {
	return Config{
		Exclude:          []string{},
		Output:           OutputTerminal,
		LogLevel:         logging.DefaultLevel,
		IgnoreFile:       intake.DefaultIgnoreFile,
		SuppressionsFile: suppress.DefaultFile,
		MaxFileBytes:     scan.DefaultMaxFileBytes,
	}
}

// LoadOptions selects the file and flag layers. Zero values fall back to
// the working directory and skip the flag layer.
type LoadOptions struct {
	ConfigFile string
	Dir        string
	Flags      *pflag.FlagSet
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		path := filepath.Join(home, globalDirName, globalFileName)
		if err := mergeFile(v, path, false); err != nil {
			return Config{}, fmt.Errorf("load global config %s: %w", path, err)
		}
	}

	local, required := opts.ConfigFile, opts.ConfigFile != ""
	if !required {
		dir := opts.Dir
		if dir == "" {
			dir, _ = os.Getwd()
		}
		if dir != "" {
			local = filepath.Join(dir, LocalFileName)
		}
	}
	if local != "" {
		if err := mergeFile(v, local, required); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", local, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if opts.Flags != nil {
		extra, err := flagExcludes(opts.Flags)
		if err != nil {
			return Config{}, err
		}
		cfg.Exclude = append(cfg.Exclude, extra...)
	}
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	cfg.FailOn = strings.ToLower(strings.TrimSpace(cfg.FailOn))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("exclude", def.Exclude)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("fail_on", def.FailOn)
	v.SetDefault("output", def.Output)
	v.SetDefault("output_file", def.OutputFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("redact", def.Redact)
	v.SetDefault("ignore_file", def.IgnoreFile)
	v.SetDefault("suppressions_file", def.SuppressionsFile)
	v.SetDefault("max_file_bytes", def.MaxFileBytes)
	v.SetDefault("otlp_endpoint", def.OTLPEndpoint)
	v.SetDefault("otlp_insecure", def.OTLPInsecure)
}

func mergeFile(v *viper.Viper, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// bindFlags maps each known flag (dash-separated) onto its config key.
// viper only lets a flag win when it was set explicitly. --exclude is left
// unbound; flagExcludes adds it on top of the other layers.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if _, ok := knownKeys[key]; !ok || key == "exclude" || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

func flagExcludes(fs *pflag.FlagSet) ([]string, error) {
	f := fs.Lookup("exclude")
	if f == nil || !f.Changed {
		return nil, nil
	}
	globs, err := fs.GetStringSlice("exclude")
	if err != nil {
		return nil, fmt.Errorf("read flag --exclude: %w", err)
	}
	return globs, nil
}

var knownKeys = func() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		keys[tagName(t.Field(i))] = struct{}{}
	}
	return keys
}()

func tagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
	return name
}

// FailOnSeverity returns the configured threshold and whether one is set.
func (c Config) FailOnSeverity() (model.Severity, bool, error) {
	if c.FailOn == "" {
		return 0, false, nil
	}
	sev, err := model.ParseSeverity(c.FailOn)
	if err != nil {
		return 0, false, err
	}
	return sev, true, nil
}

// ScanConfig converts the resolved settings into scanner settings.
func (c Config) ScanConfig() scan.Config {
	return scan.Config{
		ExcludePatterns:  append([]string(nil), c.Exclude...),
		Workers:          c.Workers,
		IgnoreFile:       c.IgnoreFile,
		SuppressionsFile: c.SuppressionsFile,
		MaxFileBytes:     c.MaxFileBytes,
	}
}
