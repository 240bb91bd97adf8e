package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *Data
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*Data, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config := &Data{}
	if err := yaml.Unmarshal(cfgFile, config); err != nil {
		return nil, err
	}

	if len(config.Sources) == 0 {
		return nil, fmt.Errorf("configuration defines no weather sources")
	}
	for i, src := range config.Sources {
		if src.Name == "" {
			return nil, fmt.Errorf("source %d has no name", i)
		}
		if src.Type == "" {
			return nil, fmt.Errorf("source [%s] has no type", src.Name)
		}
	}

	y.config = config
	return config, nil
}

func (y *YAMLProvider) loaded() (*Data, error) {
	if y.config == nil {
		return y.LoadConfig()
	}
	return y.config, nil
}

// GetSources returns the configured weather sources
func (y *YAMLProvider) GetSources() ([]SourceData, error) {
	cfg, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return cfg.Sources, nil
}

// GetState returns the state store configuration
func (y *YAMLProvider) GetState() (*StateData, error) {
	cfg, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &cfg.State, nil
}

// GetServer returns the REST server configuration
func (y *YAMLProvider) GetServer() (*ServerData, error) {
	cfg, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &cfg.Server, nil
}

// Close is a no-op for file-backed configuration
func (y *YAMLProvider) Close() error {
	return nil
}
