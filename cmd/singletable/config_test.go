package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	flags := newRootCmd().PersistentFlags()
	require.NoError(t, flags.Parse(args))
	return flags
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"AWS_ENDPOINT_URL", "AWS_REGION",
		"SINGLETABLE_AWS_ENDPOINT_URL", "SINGLETABLE_AWS_REGION",
		"SINGLETABLE_TABLE_NAME", "SINGLETABLE_BACKEND", "SINGLETABLE_LOG_LEVEL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadFileConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, configFileName), []byte(`
tableName: from-file
backend: badger
region: eu-west-1
`), 0o644))

	cfg, path, err := LoadFileConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, configFileName), path)
	assert.Equal(t, FileConfig{
		TableName: "from-file",
		Backend:   "badger",
		Region:    "eu-west-1",
	}, cfg)
}

func TestLoadFileConfig_Missing(t *testing.T) {
	cfg, path, err := LoadFileConfig(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, FileConfig{}, cfg)
}

func TestLoadFileConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("tableName: [unclosed"), 0o644))
	_, _, err := LoadFileConfig(dir)
	assert.Error(t, err)
}

func TestResolveConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := resolveConfig(testFlags(t), FileConfig{})
		require.NoError(t, err)
		assert.Equal(t, "single-table", cfg.TableName)
		assert.Equal(t, backendDynamoDB, cfg.Backend)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Empty(t, cfg.EndpointURL)
	})

	t.Run("file beats defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := resolveConfig(testFlags(t), FileConfig{TableName: "from-file", Backend: "memory"})
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.TableName)
		assert.Equal(t, backendMemory, cfg.Backend)
	})

	t.Run("env beats file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AWS_ENDPOINT_URL", "http://localhost:2000")
		t.Setenv("SINGLETABLE_TABLE_NAME", "from-env")
		cfg, err := resolveConfig(testFlags(t), FileConfig{TableName: "from-file", EndpointURL: "http://file"})
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.TableName)
		assert.Equal(t, "http://localhost:2000", cfg.EndpointURL)
	})

	t.Run("flags beat env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AWS_REGION", "us-east-1")
		cfg, err := resolveConfig(testFlags(t, "--aws-region", "eu-north-1", "--table-name", "from-flag"), FileConfig{})
		require.NoError(t, err)
		assert.Equal(t, "eu-north-1", cfg.Region)
		assert.Equal(t, "from-flag", cfg.TableName)
	})

	t.Run("unknown backend", func(t *testing.T) {
		clearEnv(t)
		_, err := resolveConfig(testFlags(t, "--backend", "sqlite"), FileConfig{})
		assert.ErrorContains(t, err, "unknown backend")
	})
}
