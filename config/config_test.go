package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "codoc"}
	InitFlags(cmd)
	return cmd
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"THEME", "LOG_LEVEL", "CODOC_STATE_DIR", "WRITE_BACK", "PROVIDER", "BASE_URL", "MODEL", "TEMPERATURE", "MAX_TOKENS", "API_KEY", "OPENAI_API_KEY", "API_VERSION"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigs_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfigs(newTestCommand(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig.Theme, cfg.Theme)
	assert.Equal(t, ".codoc", cfg.StateDir)
	assert.False(t, cfg.WriteBack)
	assert.Equal(t, int64(100*1024), cfg.MaxFileSize)
	assert.Equal(t, DefaultConfig.Extensions, cfg.Extensions)
	assert.Equal(t, "openai", cfg.AIProviderConfig.Provider)
	assert.Equal(t, "https://api.openai.com/v1", cfg.AIProviderConfig.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.AIProviderConfig.Model)
	assert.Nil(t, cfg.AIProviderConfig.Temperature)
}

func TestLoadConfigs_FileEnvAndFlags(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yaml := `theme: monokai
state_dir: .docs-state
write_back: true
extensions: [".py"]
ai_provider_config:
  provider: ollama
  model: llama3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName+".yml"), []byte(yaml), 0644))
	t.Setenv("MODEL", "qwen2")
	t.Setenv("TEMPERATURE", "0.3")

	cmd := newTestCommand()
	require.NoError(t, cmd.PersistentFlags().Set("theme", "github"))

	cfg, err := LoadConfigs(cmd, dir)
	require.NoError(t, err)

	assert.Equal(t, "github", cfg.Theme)
	assert.Equal(t, ".docs-state", cfg.StateDir)
	assert.True(t, cfg.WriteBack)
	assert.Equal(t, []string{".py"}, cfg.Extensions)
	assert.Equal(t, "ollama", cfg.AIProviderConfig.Provider)
	assert.Equal(t, "qwen2", cfg.AIProviderConfig.Model)
	assert.Empty(t, cfg.AIProviderConfig.BaseURL)
	require.NotNil(t, cfg.AIProviderConfig.Temperature)
	assert.InDelta(t, 0.3, *cfg.AIProviderConfig.Temperature, 0.0001)
}

func TestLoadConfigs_ExplicitConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.json"), []byte(`{"log_level":"debug","ai_provider_config":{"model":"gpt-4o-mini"}}`), 0644))

	cmd := newTestCommand()
	require.NoError(t, cmd.PersistentFlags().Set("config", "custom.json"))

	cfg, err := LoadConfigs(cmd, dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "gpt-4o-mini", cfg.AIProviderConfig.Model)
}

func TestLoadConfigs_MissingExplicitConfigFile(t *testing.T) {
	clearEnv(t)
	cmd := newTestCommand()
	require.NoError(t, cmd.PersistentFlags().Set("config", "missing.yml"))

	_, err := LoadConfigs(cmd, t.TempDir())
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig
	assert.NoError(t, valid.Validate())

	tests := map[string]func(c *Config){
		"empty state dir":    func(c *Config) { c.StateDir = " " },
		"absolute state dir": func(c *Config) { c.StateDir = "/tmp/state" },
		"escaping state dir": func(c *Config) { c.StateDir = "../state" },
		"unknown log level":  func(c *Config) { c.LogLevel = "verbose" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestGetConfigFileType(t *testing.T) {
	assert.Equal(t, "json", GetConfigFileType("codoc-config.json"))
	assert.Equal(t, "yaml", GetConfigFileType("codoc-config.yml"))
	assert.Equal(t, "yaml", GetConfigFileType("codoc-config.yaml"))
	assert.Equal(t, "", GetConfigFileType("codoc-config.toml"))
}
