package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/codoc/providers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	LogLevel         string                      `mapstructure:"log_level"`
	StateDir         string                      `mapstructure:"state_dir"`
	WriteBack        bool                        `mapstructure:"write_back"`
	MaxFileSize      int64                       `mapstructure:"max_file_size"`
	Extensions       []string                    `mapstructure:"extensions"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:     "0.3.0",
	Theme:       "dracula",
	LogLevel:    "info",
	StateDir:    ".codoc",
	WriteBack:   false,
	MaxFileSize: 100 * 1024,
	Extensions:  []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".py", ".go"},
	AIProviderConfig: &providers.AIProviderConfig{
		Provider: "openai",
		BaseURL:  "https://api.openai.com/v1",
		Model:    "gpt-4o",
	},
}

// ConfigFileName is the base name searched for in the workspace root
const ConfigFileName = "codoc-config"

// LoadConfigs reads defaults, the configuration file, environment variables
// and CLI flags, in increasing order of precedence.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(cwd, cfgFile)
		}
		v.SetConfigFile(cfgFile)
		if fileType := GetConfigFileType(cfgFile); fileType != "" {
			v.SetConfigType(fileType)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(cwd)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	bindFlags(v, rootCmd)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if config.AIProviderConfig == nil {
		config.AIProviderConfig = &providers.AIProviderConfig{}
	}
	// the default base URL belongs to the default provider only
	if !strings.EqualFold(config.AIProviderConfig.Provider, DefaultConfig.AIProviderConfig.Provider) &&
		config.AIProviderConfig.BaseURL == DefaultConfig.AIProviderConfig.BaseURL {
		config.AIProviderConfig.BaseURL = ""
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StateDir) == "" {
		return errors.New("state_dir must not be empty")
	}
	if filepath.IsAbs(c.StateDir) || strings.HasPrefix(filepath.Clean(c.StateDir), "..") {
		return fmt.Errorf("state_dir '%s' must be a path inside the workspace", c.StateDir)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level '%s' (use debug, info, warn or error)", c.LogLevel)
	}
	return nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("log_level", DefaultConfig.LogLevel)
	v.SetDefault("state_dir", DefaultConfig.StateDir)
	v.SetDefault("write_back", DefaultConfig.WriteBack)
	v.SetDefault("max_file_size", DefaultConfig.MaxFileSize)
	v.SetDefault("extensions", DefaultConfig.Extensions)
	v.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	v.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	v.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	v.SetDefault("ai_provider_config.max_tokens", DefaultConfig.AIProviderConfig.MaxTokens)
	v.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
	v.SetDefault("ai_provider_config.api_version", DefaultConfig.AIProviderConfig.ApiVersion)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("theme", "THEME")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("state_dir", "CODOC_STATE_DIR")
	_ = v.BindEnv("write_back", "WRITE_BACK")
	_ = v.BindEnv("ai_provider_config.provider", "PROVIDER")
	_ = v.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = v.BindEnv("ai_provider_config.model", "MODEL")
	_ = v.BindEnv("ai_provider_config.temperature", "TEMPERATURE")
	_ = v.BindEnv("ai_provider_config.max_tokens", "MAX_TOKENS")
	_ = v.BindEnv("ai_provider_config.api_key", "API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ai_provider_config.api_version", "API_VERSION")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag("theme", flags.Lookup("theme"))
	_ = v.BindPFlag("log_level", flags.Lookup("log_level"))
	_ = v.BindPFlag("write_back", flags.Lookup("write_back"))
	_ = v.BindPFlag("ai_provider_config.provider", flags.Lookup("provider"))
	_ = v.BindPFlag("ai_provider_config.base_url", flags.Lookup("base_url"))
	_ = v.BindPFlag("ai_provider_config.model", flags.Lookup("model"))
	_ = v.BindPFlag("ai_provider_config.api_key", flags.Lookup("api_key"))
	_ = v.BindPFlag("ai_provider_config.api_version", flags.Lookup("api_version"))

	// an unset float flag would otherwise force temperature to 0
	if f := flags.Lookup("temperature"); f != nil && f.Changed {
		_ = v.BindPFlag("ai_provider_config.temperature", f)
	}
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringP("path", "p", ".", "Workspace root to document.")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Syntax highlighting theme used when showing documentation (e.g., 'dracula', 'monokai').")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Log level: debug, info, warn or error.")
	rootCmd.PersistentFlags().Bool("write_back", DefaultConfig.WriteBack, "Write the documented content back into the source files.")

	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The name of the AI provider (e.g., 'openai', 'azure-openai', 'ollama').")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of AI Provider (e.g., default is 'https://api.openai.com/v1').")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The name of the model used for documentation, such as 'gpt-4o'.")
	rootCmd.PersistentFlags().Float32("temperature", 0, "Adjusts the AI model's creativity (0-1).")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the AI service provider.")
	rootCmd.PersistentFlags().String("api_version", DefaultConfig.AIProviderConfig.ApiVersion, "The API version used by the AI service provider.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}
