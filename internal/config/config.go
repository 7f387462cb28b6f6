package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ConverterConfig controls the external document converter invocation.
type ConverterConfig struct {
	// Binary is the converter executable; looked up on PATH when not
	// absolute.
	Binary string `mapstructure:"binary"`
	// TimeoutSeconds bounds one conversion run.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// Locale is passed to the converter environment (BCP 47).
	Locale string `mapstructure:"locale"`
	// FilterSpec is appended to the target format ("pdf:writer_pdf_Export").
	FilterSpec string `mapstructure:"filter_spec"`
}

// Config holds all settings of the template tool.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`

	// KeepArtifacts retains the rendered packages the HTTP server produces,
	// logging their paths instead of deleting them after the response.
	KeepArtifacts bool `mapstructure:"keep_artifacts"`

	Converter ConverterConfig `mapstructure:"converter"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Converter: ConverterConfig{
			Binary:         "soffice",
			TimeoutSeconds: 120,
			Locale:         "en-US",
		},
	}
}

// Load reads configuration from an explicit file, or searches the home
// directory and the working directory for ".wordtpl.yaml". Environment
// variables prefixed WORDTPL_ override file values. A missing file yields
// the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("debug", false)
	v.SetDefault("keep_artifacts", false)
	v.SetDefault("converter.binary", "soffice")
	v.SetDefault("converter.timeout_seconds", 120)
	v.SetDefault("converter.locale", "en-US")

	v.SetEnvPrefix("WORDTPL")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".wordtpl")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && configPath == "" {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	return &cfg, nil
}
