package config

import (
	"os"

	"nnrt/internal/registry"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is built once at process start and passed to every generation
// component. Registry is never read from a global.
type Config struct {
	Executor     string `yaml:"executor"`
	Prefix       string `yaml:"prefix"`
	RegistryFile string `yaml:"registry"`
	ParamsFile   string `yaml:"params"`
	Output       string `yaml:"output"`

	Registry *registry.Registry `yaml:"-"`
}

// Default returns a configuration using the builtin operator catalog and
// the model's first executor.
func Default() *Config {
	return &Config{Registry: registry.Builtin()}
}

// Load reads a YAML configuration file. Registry is left for Resolve.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening configuration %q", path)
	}
	defer f.Close()
	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decoding configuration %q", path)
	}
	return &cfg, nil
}

// Resolve constructs the operator registry: from RegistryFile when set,
// otherwise the builtin catalog.
func (c *Config) Resolve() error {
	if c.RegistryFile == "" {
		c.Registry = registry.Builtin()
		return nil
	}
	f, err := os.Open(c.RegistryFile)
	if err != nil {
		return errors.Wrapf(err, "opening operator catalog %q", c.RegistryFile)
	}
	defer f.Close()
	r, err := registry.Load(f)
	if err != nil {
		return errors.WithMessagef(err, "operator catalog %q", c.RegistryFile)
	}
	c.Registry = r
	return nil
}
