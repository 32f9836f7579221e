package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	envVarPrefix = "RDEDUPE"
	// ConfigEnvVar names the config file when --config is not given.
	ConfigEnvVar = envVarPrefix + "_CONFIG"
)

// Config holds settings read from the config file and the environment.
// Nil fields are unset and leave the flag default in place.
type Config struct {
	Workers    *int     `envconfig:"WORKERS"     yaml:"workers"`
	Hash       *string  `envconfig:"HASH"        yaml:"hash"`
	Report     *string  `envconfig:"REPORT"      yaml:"report"`
	Output     *string  `envconfig:"OUTPUT"      yaml:"output"`
	Excludes   []string `envconfig:"EXCLUDE"     yaml:"exclude"`
	MinSize    *string  `envconfig:"MIN_SIZE"    yaml:"min_size"`
	Depth      *int     `envconfig:"DEPTH"       yaml:"depth"`
	FailFast   *bool    `envconfig:"FAIL_FAST"   yaml:"fail_fast"`
	NoProgress *bool    `envconfig:"NO_PROGRESS" yaml:"no_progress"`
	Debug      *bool    `envconfig:"DEBUG"       yaml:"debug"`
}

// LoadConfig reads the YAML file at path, or the file named by
// RDEDUPE_CONFIG when path is empty, and then overlays RDEDUPE_*
// environment variables. Without a file only the environment is read.
func LoadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("reading config file: %w", err)
		}

		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return c, fmt.Errorf("unmarshaling config file %q: %w", path, err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return c, fmt.Errorf("parsing environment variables: %w", err)
	}

	return c, nil
}

// apply copies every set config value into opts unless the matching flag
// was given on the command line.
func (c Config) apply(opts *options, flags *pflag.FlagSet) {
	if c.Workers != nil && !flags.Changed("workers") {
		opts.Workers = *c.Workers
	}

	if c.Hash != nil && !flags.Changed("hash") {
		opts.Hash = *c.Hash
	}

	if c.Report != nil && !flags.Changed("report") {
		opts.Report = *c.Report
	}

	if c.Output != nil && !flags.Changed("output") {
		opts.Output = *c.Output
	}

	if c.Excludes != nil && !flags.Changed("exclude") {
		opts.Excludes = c.Excludes
	}

	if c.MinSize != nil && !flags.Changed("min-size") {
		opts.MinSizeStr = *c.MinSize
	}

	if c.Depth != nil && !flags.Changed("depth") {
		opts.Depth = *c.Depth
	}

	if c.FailFast != nil && !flags.Changed("fail-fast") {
		opts.FailFast = *c.FailFast
	}

	if c.NoProgress != nil && !flags.Changed("no-progress") {
		opts.NoProgress = *c.NoProgress
	}

	if c.Debug != nil && !flags.Changed("debug") {
		opts.Debug = *c.Debug
	}
}
