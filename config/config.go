// Package config loads the runtime configuration: backend preference,
// block layout convention and log verbosity.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhimeda/rocALUTION/sparse"
)

// Config is the runtime configuration.
type Config struct {
	Backend struct {
		// Preference selects the compute backend: "auto" tries the
		// accelerator and falls back to host, "host" and "webgpu" force one.
		Preference string `yaml:"preference"`
	} `yaml:"backend"`
	Matrix struct {
		// BlockDirection is the scalar layout inside each dense block:
		// "row" or "column".
		BlockDirection string `yaml:"blockDirection"`
	} `yaml:"matrix"`
	Logger struct {
		Verbosity string `yaml:"verbosity"`
	} `yaml:"logger"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.Backend.Preference = "auto"
	c.Matrix.BlockDirection = "row"
	c.Logger.Verbosity = "info"
	return c
}

// Load reads a YAML configuration file. Missing fields keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Backend.Preference {
	case "auto", "host", "webgpu":
	default:
		return fmt.Errorf("config: unknown backend preference %q", c.Backend.Preference)
	}

	if _, err := c.Direction(); err != nil {
		return err
	}

	return nil
}

// Direction maps the configured block direction onto the sparse enum.
func (c *Config) Direction() (sparse.BlockDirection, error) {
	switch c.Matrix.BlockDirection {
	case "row", "":
		return sparse.BlockRowMajor, nil
	case "column":
		return sparse.BlockColumnMajor, nil
	default:
		return sparse.BlockRowMajor, fmt.Errorf("config: unknown block direction %q", c.Matrix.BlockDirection)
	}
}
