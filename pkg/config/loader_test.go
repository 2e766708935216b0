package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/profiler/pkg/config"
)

type defaultsConfig struct {
	Endpoint string        `env:"CFGTEST_DEFAULT_ENDPOINT" envDefault:"https://track.example.com"`
	Delay    time.Duration `env:"CFGTEST_DEFAULT_DELAY" envDefault:"2s"`
	Enabled  bool          `env:"CFGTEST_DEFAULT_ENABLED" envDefault:"true"`
}

type successConfig struct {
	Organization string `env:"CFGTEST_SUCCESS_ORG"`
	Retries      int    `env:"CFGTEST_SUCCESS_RETRIES" envDefault:"1"`
}

type singletonConfig struct {
	Value string `env:"CFGTEST_SINGLETON" envDefault:"first"`
}

type requiredConfig struct {
	Organization string `env:"CFGTEST_REQUIRED_ORG,required"`
}

type prefixedConfig struct {
	Organization string `env:"ORGANIZATION"`
}

type fileConfig struct {
	Value string `env:"CFGTEST_FILE_VALUE"`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("CFGTEST_SUCCESS_ORG", "acme")
	t.Setenv("CFGTEST_SUCCESS_RETRIES", "3")

	var cfg successConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "acme", cfg.Organization)
	assert.Equal(t, 3, cfg.Retries)
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Unsetenv("CFGTEST_DEFAULT_ENDPOINT")
	os.Unsetenv("CFGTEST_DEFAULT_DELAY")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "https://track.example.com", cfg.Endpoint)
	assert.Equal(t, 2*time.Second, cfg.Delay)
	assert.True(t, cfg.Enabled)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("CFGTEST_REQUIRED_ORG")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_Cached(t *testing.T) {
	t.Setenv("CFGTEST_SINGLETON", "first")
	var first singletonConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFGTEST_SINGLETON", "second")
	var second singletonConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value, "cached copy must be returned")

	config.ResetCache()
	var third singletonConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoadWithPrefix(t *testing.T) {
	t.Setenv("ALPHA_ORGANIZATION", "alpha")
	t.Setenv("BETA_ORGANIZATION", "beta")

	var a, b prefixedConfig
	require.NoError(t, config.LoadWithPrefix("ALPHA_", &a))
	require.NoError(t, config.LoadWithPrefix("BETA_", &b))
	assert.Equal(t, "alpha", a.Organization)
	assert.Equal(t, "beta", b.Organization)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *successConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	os.Unsetenv("CFGTEST_FILE_VALUE")
	t.Cleanup(func() { os.Unsetenv("CFGTEST_FILE_VALUE") })

	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("CFGTEST_FILE_VALUE=from-file\n"), 0o600))

	require.NoError(t, config.LoadEnv(path))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-file", cfg.Value)

	err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestMustLoad(t *testing.T) {
	os.Unsetenv("CFGTEST_REQUIRED_ORG")
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}
