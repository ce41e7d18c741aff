package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads config from a YAML file on top of Default.
// A database url or host is required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
