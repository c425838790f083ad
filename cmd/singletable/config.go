package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const configFileName = "singletable.yaml"

// Flag and config keys.
const (
	keyEndpointURL = "aws-endpoint-url"
	keyRegion      = "aws-region"
	keyTableName   = "table-name"
	keyBackend     = "backend"
	keyLogLevel    = "log-level"
	keyDebug       = "debug"
	keyMetrics     = "metrics"
)

// Backends selectable with --backend.
const (
	backendMemory   = "memory"
	backendBadger   = "badger"
	backendDynamoDB = "dynamodb"
)

// FileConfig is the content of singletable.yaml.
type FileConfig struct {
	TableName   string `yaml:"tableName"`
	Backend     string `yaml:"backend"`
	Region      string `yaml:"region"`
	EndpointURL string `yaml:"endpointUrl"`
	LogLevel    string `yaml:"logLevel"`
}

// values returns the non-empty settings keyed like the flags.
func (c FileConfig) values() map[string]any {
	m := map[string]any{}
	for k, v := range map[string]string{
		keyTableName:   c.TableName,
		keyBackend:     c.Backend,
		keyRegion:      c.Region,
		keyEndpointURL: c.EndpointURL,
		keyLogLevel:    c.LogLevel,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// LoadFileConfig searches for singletable.yaml starting from dir and walking
// up to the filesystem root. Returns empty config if not found.
func LoadFileConfig(dir string) (FileConfig, string, error) {
	var cfg FileConfig

	path := findConfigFile(dir)
	if path == "" {
		return cfg, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, path, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, path, nil
}

func findConfigFile(dir string) string {
	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}

// Config is the resolved CLI configuration.
type Config struct {
	EndpointURL string
	Region      string
	TableName   string
	Backend     string
	LogLevel    string
	Debug       bool
	Metrics     bool
}

func (c Config) validate() error {
	switch c.Backend {
	case backendMemory, backendBadger, backendDynamoDB:
	default:
		return fmt.Errorf("unknown backend %q, expected %s, %s or %s", c.Backend, backendMemory, backendBadger, backendDynamoDB)
	}
	if c.TableName == "" {
		return fmt.Errorf("table name must not be empty")
	}
	return nil
}

// loadEnvFiles loads .env and .env.local from the working directory.
// Variables already set in the environment are not overwritten.
func loadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// resolveConfig layers flags over environment over the config file over flag defaults.
func resolveConfig(flags *pflag.FlagSet, file FileConfig) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("singletable")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The AWS variables are honoured without prefix.
	if err := v.BindEnv(keyEndpointURL, "AWS_ENDPOINT_URL", "SINGLETABLE_AWS_ENDPOINT_URL"); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv(keyRegion, "AWS_REGION", "SINGLETABLE_AWS_REGION"); err != nil {
		return Config{}, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}
	if err := v.MergeConfigMap(file.values()); err != nil {
		return Config{}, fmt.Errorf("merge config file: %w", err)
	}

	cfg := Config{
		EndpointURL: v.GetString(keyEndpointURL),
		Region:      v.GetString(keyRegion),
		TableName:   v.GetString(keyTableName),
		Backend:     v.GetString(keyBackend),
		LogLevel:    v.GetString(keyLogLevel),
		Debug:       v.GetBool(keyDebug),
		Metrics:     v.GetBool(keyMetrics),
	}
	return cfg, cfg.validate()
}
