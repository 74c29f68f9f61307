// Package config loads application configuration from YAML with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Corpus struct {
		// Path is the SQLite database file for the article corpus.
		Path string `yaml:"path"`
	} `yaml:"corpus"`

	Vectors struct {
		// Path is the Badger directory for the embedding index.
		Path string `yaml:"path"`
		// Section names the key section holding article vectors.
		Section string `yaml:"section"`
	} `yaml:"vectors"`

	Embedding struct {
		Host  string `yaml:"host"`
		Model string `yaml:"model"`
	} `yaml:"embedding"`

	Import struct {
		Workers      int `yaml:"workers"`
		SubBatchSize int `yaml:"sub_batch_size"`
	} `yaml:"import"`
}

// Load reads configuration from the given path. When path is empty the
// default locations are tried in order; when none exists the built-in
// defaults apply. Environment variables override file values either way.
func Load(path string) (*Config, error) {
	if path == "" {
		locations := []string{
			"wikidex.yaml",
			"wikidex.yml",
			filepath.Join(os.Getenv("HOME"), ".config/wikidex/config.yaml"),
			"/etc/wikidex/config.yaml",
		}
		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	config := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Corpus.Path == "" {
		config.Corpus.Path = "wikidex.db"
	}
	if config.Vectors.Path == "" {
		config.Vectors.Path = "wikidex-vectors"
	}
	if config.Vectors.Section == "" {
		config.Vectors.Section = "articles"
	}
	if config.Embedding.Host == "" {
		config.Embedding.Host = "http://localhost:11434/v1"
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "embeddinggemma"
	}
	if config.Import.Workers == 0 {
		config.Import.Workers = runtime.NumCPU() / 2
		if config.Import.Workers < 1 {
			config.Import.Workers = 1
		}
	}
	if config.Import.SubBatchSize == 0 {
		config.Import.SubBatchSize = 100
	}
}

func mergeWithEnv(config *Config) {
	if path := os.Getenv("WIKIDEX_CORPUS_PATH"); path != "" {
		config.Corpus.Path = path
	}
	if path := os.Getenv("WIKIDEX_VECTORS_PATH"); path != "" {
		config.Vectors.Path = path
	}
	if host := os.Getenv("WIKIDEX_EMBEDDING_HOST"); host != "" {
		config.Embedding.Host = host
	}
	if model := os.Getenv("WIKIDEX_EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
}
