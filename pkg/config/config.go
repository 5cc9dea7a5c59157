// Package config loads benchmark-suite definitions: a shared prompt and
// generation settings plus the list of model variants to deploy and measure.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite describes one benchmark campaign over a set of model variants
type Suite struct {
	Prompt         string  `yaml:"prompt"`
	Iterations     int     `yaml:"iterations"`
	MaxNewTokens   int     `yaml:"max_new_tokens"`
	Temperature    float64 `yaml:"temperature"`
	ReturnFullText bool    `yaml:"return_full_text"`

	// Wait blocks each deployment until InService before benchmarking
	Wait bool `yaml:"wait"`

	// Teardown deletes each endpoint after its benchmark finishes
	Teardown bool `yaml:"teardown"`

	Variants []Variant `yaml:"variants"`
}

// Variant is one model/quantization/instance combination to measure
type Variant struct {
	Name         string            `yaml:"name"`
	ModelID      string            `yaml:"model_id"`
	Quantization string            `yaml:"quantization"`
	NumGPUs      int               `yaml:"num_gpus"`
	InstanceType string            `yaml:"instance_type,omitempty"`
	ImageURI     string            `yaml:"image_uri,omitempty"`
	ArtifactPath string            `yaml:"artifact_path,omitempty"`
	Environment  map[string]string `yaml:"environment,omitempty"`
}

// Load reads and validates a suite definition from a YAML file
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite file: %w", err)
	}

	suite.applyDefaults()
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

func (s *Suite) applyDefaults() {
	if s.Iterations == 0 {
		s.Iterations = 10
	}
	if s.MaxNewTokens == 0 {
		s.MaxNewTokens = 256
	}
	if s.Temperature == 0 {
		s.Temperature = 0.7
	}
	for i := range s.Variants {
		if s.Variants[i].NumGPUs == 0 {
			s.Variants[i].NumGPUs = 1
		}
		if s.Variants[i].Quantization == "" {
			s.Variants[i].Quantization = "none"
		}
	}
}

// Validate checks the suite for structural problems
func (s *Suite) Validate() error {
	if strings.TrimSpace(s.Prompt) == "" {
		return fmt.Errorf("suite prompt must not be empty")
	}
	if s.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", s.Iterations)
	}
	if len(s.Variants) == 0 {
		return fmt.Errorf("suite must define at least one variant")
	}

	seen := make(map[string]struct{}, len(s.Variants))
	for i, v := range s.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("variant %d: name must not be empty", i)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("variant %q defined twice", v.Name)
		}
		seen[v.Name] = struct{}{}
		if strings.TrimSpace(v.ModelID) == "" {
			return fmt.Errorf("variant %q: model_id must not be empty", v.Name)
		}
	}
	return nil
}
