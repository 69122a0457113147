// Package config reads job files that describe a batch of conversions. A job
// file can be written as .json or .yml.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		// OutDir is where outputs without an explicit path are written. By
		// default they go next to their input.
		OutDir string `yaml:"outdir,omitempty" json:"outdir,omitempty"`
		// Template names the outputs without an explicit path; see package
		// naming.
		Template string `yaml:"template,omitempty" json:"template,omitempty"`
		// Safe refuses to overwrite existing files.
		Safe bool  `yaml:"safe,omitempty" json:"safe,omitempty"`
		Jobs []Job `yaml:"jobs" json:"jobs"`
	}

	Job struct {
		Input   string `yaml:"input" json:"input"`
		Output  string `yaml:"output,omitempty" json:"output,omitempty"`
		Compare string `yaml:"compare,omitempty" json:"compare,omitempty"`
	}
)

var ErrNoJobs = errors.New("job file has no jobs")

// Load reads and validates the job file at path. Relative paths in the file
// are resolved against the directory of the job file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read job file %v: %w", path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("job file %v: %w", path, err)
	}
	c.resolve(filepath.Dir(path))
	return c, nil
}

// Parse decodes a job file from .json or .yml contents.
func Parse(b []byte) (*Config, error) {
	var c Config
	if errJSON := json.Unmarshal(b, &c); errJSON != nil {
		c = Config{}
		if errYaml := yaml.Unmarshal(b, &c); errYaml != nil {
			return nil, fmt.Errorf("could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if len(c.Jobs) == 0 {
		return ErrNoJobs
	}
	for i, j := range c.Jobs {
		if j.Input == "" {
			return fmt.Errorf("job %d has no input", i)
		}
	}
	return nil
}

func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.OutDir = abs(c.OutDir)
	for i := range c.Jobs {
		c.Jobs[i].Input = abs(c.Jobs[i].Input)
		c.Jobs[i].Output = abs(c.Jobs[i].Output)
		c.Jobs[i].Compare = abs(c.Jobs[i].Compare)
	}
}
