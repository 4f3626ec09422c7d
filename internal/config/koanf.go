package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/covermatch/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from defaults, the YAML file at path (or
// the first of DefaultConfigPaths when path is empty) and the environment.
// An explicitly given path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// File and environment values are kept apart from the defaults so Load
	// can tell which keys were actually set.
	overrides := koanf.New(".")

	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := overrides.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := overrides.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.Merge(overrides); err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if !overrides.Exists("embedding.dimension") {
		cfg.Embedding.Dimension = ModelDimension(cfg.Embedding.Provider, cfg.Embedding.Model)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

var envMappings = map[string]string{
	"http_port":                    "server.port",
	"upload_limit_mb":              "server.upload_limit_mb",
	"http_read_timeout":            "server.read_timeout",
	"http_write_timeout":           "server.write_timeout",
	"shutdown_timeout":             "server.shutdown_timeout",
	"database_driver":              "database.driver",
	"database_dsn":                 "database.dsn",
	"database_url":                 "database.dsn",
	"embedding_provider":           "embedding.provider",
	"embedding_url":                "embedding.url",
	"embedding_model":              "embedding.model",
	"embedding_caption_model":      "embedding.caption_model",
	"embedding_timeout":            "embedding.timeout",
	"embedding_dimension":          "embedding.dimension",
	"embedding_parallel_rotations": "embedding.parallel_rotations",
	"embedding_breaker_failures":   "embedding.breaker_failures",
	"embedding_breaker_timeout":    "embedding.breaker_timeout",
	"covers_dir":                   "covers.dir",
	"log_level":                    "logging.level",
	"log_format":                   "logging.format",
}

// envTransformFunc maps environment variable names to config paths, e.g.
// DATABASE_DSN -> database.dsn. Unknown variables are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
