package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newsdive/internal/core"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration. Components receive the sections
// they need at construction; nothing reads ambient environment state directly.
type Config struct {
	App      App      `mapstructure:"app"`
	AI       AI       `mapstructure:"ai"`
	Finance  Finance  `mapstructure:"finance"`
	Email    Email    `mapstructure:"email"`
	Feeds    Feeds    `mapstructure:"feeds"`
	Pipeline Pipeline `mapstructure:"pipeline"`
}

// App holds general application configuration.
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// AI holds Gemini configuration.
type AI struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout string `mapstructure:"timeout"`
}

// Finance holds Alpha Vantage configuration. An empty API key disables
// financial lookups without blocking the rest of the pipeline.
type Finance struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// Email holds SMTP delivery configuration.
type Email struct {
	SMTPHost  string `mapstructure:"smtp_host"`
	SMTPPort  int    `mapstructure:"smtp_port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FromName  string `mapstructure:"from_name"`
	Recipient string `mapstructure:"recipient"`
}

// Feeds holds feed polling configuration.
type Feeds struct {
	Sources       []core.Source `mapstructure:"sources"`
	MaxPerSource  int           `mapstructure:"max_per_source"`
	FetchTimeout  string        `mapstructure:"fetch_timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	MinBodyLength int           `mapstructure:"min_body_length"`
}

// Pipeline holds run-level tuning.
type Pipeline struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRetries       int `mapstructure:"max_retries"`
	RetentionDays    int `mapstructure:"retention_days"`
	ArchiveKeepDays  int `mapstructure:"archive_keep_days"`
	AnalysisDaysBack int `mapstructure:"analysis_days_back"`
}

var globalConfig *Config

// Load loads the configuration from .env, config file, and environment.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists (for local development)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newsdive")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", "daily_news_data")

	viper.SetDefault("ai.model", "gemini-flash-lite-latest")
	viper.SetDefault("ai.timeout", "60s")

	viper.SetDefault("finance.base_url", "https://www.alphavantage.co")
	viper.SetDefault("finance.timeout", "30s")

	viper.SetDefault("email.smtp_host", "smtp.gmail.com")
	viper.SetDefault("email.smtp_port", 587)
	viper.SetDefault("email.from_name", "Newsdive Reports")

	viper.SetDefault("feeds.max_per_source", 10)
	viper.SetDefault("feeds.fetch_timeout", "15s")
	viper.SetDefault("feeds.user_agent", "Newsdive RSS Reader/1.0")
	viper.SetDefault("feeds.min_body_length", 100)

	viper.SetDefault("pipeline.concurrency", 4)
	viper.SetDefault("pipeline.max_retries", 3)
	viper.SetDefault("pipeline.retention_days", 14)
	viper.SetDefault("pipeline.archive_keep_days", 400)
	viper.SetDefault("pipeline.analysis_days_back", 7)
}

// bindEnvironmentVariables sets up flexible environment variable binding.
func bindEnvironmentVariables() {
	bindEnvKeys("ai.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("finance.api_key", []string{
		"ALPHA_VANTAGE_API_KEY",
		"ALPHAVANTAGE_API_KEY",
	})

	bindEnvKeys("email.username", []string{
		"EMAIL_ADDRESS",
		"SMTP_USERNAME",
	})

	bindEnvKeys("email.password", []string{
		"EMAIL_PASSWORD",
		"SMTP_PASSWORD",
	})

	bindEnvKeys("email.recipient", []string{
		"RECIPIENT_EMAIL",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"NEWSDIVE_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key.
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig expands paths and validates durations.
func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}

	durations := map[string]string{
		"ai.timeout":          config.AI.Timeout,
		"finance.timeout":     config.Finance.Timeout,
		"feeds.fetch_timeout": config.Feeds.FetchTimeout,
	}
	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures required configuration is present.
func validateConfig(config *Config) error {
	var errors []string

	if config.AI.APIKey == "" {
		errors = append(errors, "Gemini API key is required. Set GEMINI_API_KEY environment variable or ai.api_key in config file")
	}

	if config.Email.SMTPHost != "" && config.Email.Username != "" && config.Email.Password == "" {
		errors = append(errors, "SMTP password is required when email is configured")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// FeedTimeout returns the parsed feed fetch timeout.
func (f Feeds) FeedTimeout() time.Duration {
	d, err := time.ParseDuration(f.FetchTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// RequestTimeout returns the parsed Alpha Vantage request timeout.
func (f Finance) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Reset clears the global configuration (useful for testing).
func Reset() {
	globalConfig = nil
	viper.Reset()
}
