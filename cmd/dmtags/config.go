package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/gatan-dm/dm"
	"github.com/wippyai/gatan-dm/errors"
)

// config holds settings that can come from a YAML file. Flags given on the
// command line override file values.
type config struct {
	Format   string      `yaml:"format"`
	Charset  string      `yaml:"charset"`
	LogLevel string      `yaml:"log_level"`
	DumpDir  string      `yaml:"dump_dir"`
	InfoKeys []infoEntry `yaml:"info_keys"`
	Image    int         `yaml:"image"`
	MaxDepth int         `yaml:"max_depth"`
}

type infoEntry struct {
	Name string `yaml:"name"`
	Tag  string `yaml:"tag"`
}

func defaultConfig() config {
	return config{
		Format:   "text",
		Charset:  "utf-8",
		LogLevel: "warn",
		Image:    1,
		MaxDepth: dm.MaxDepth,
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "read "+path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c config) validate() error {
	switch c.Format {
	case "text", "yaml", "json":
	default:
		return errors.InvalidInput(errors.PhaseConfig, "format must be text, yaml or json, got "+c.Format)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log_level")
	}
	for _, e := range c.InfoKeys {
		if e.Name == "" || e.Tag == "" {
			return errors.InvalidInput(errors.PhaseConfig, "info_keys entries need name and tag")
		}
	}
	return nil
}

// infoFields returns the configured info table, or the built-in one.
func (c config) infoFields() []dm.InfoField {
	if len(c.InfoKeys) == 0 {
		return dm.InfoKeys()
	}
	fields := make([]dm.InfoField, len(c.InfoKeys))
	for i, e := range c.InfoKeys {
		fields[i] = dm.InfoField{Name: e.Name, Tag: e.Tag}
	}
	return fields
}

func (c config) parseOptions(log *zap.Logger) dm.Options {
	opts := dm.DefaultOptions()
	opts.Logger = log
	opts.MaxDepth = c.MaxDepth
	return opts
}

// newLogger builds the CLI logger. Verbose mode uses the human-readable
// development encoder at debug level.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
