package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ErrInvalidConfiguration is returned when required settings are missing
// or malformed. No connection attempt is made with an invalid configuration.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// IMAPConfig holds the settings needed to reach the mail server.
type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Addr returns the host:port dial address for the IMAP server.
func (c IMAPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OCRConfig holds the settings for the OCR service.
type OCRConfig struct {
	// APIKey authenticates against the Mistral API.
	APIKey string

	// BaseURL overrides the API endpoint, mainly for tests.
	// Empty means the public endpoint.
	BaseURL string
}

// Config is the full application configuration.
type Config struct {
	IMAP IMAPConfig
	OCR  OCRConfig
}

// Load reads configuration from the environment and an optional .env file
// in the working directory. Environment variables take precedence over
// the .env file.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is like Load but looks for the .env file in the given directory.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)

	v.SetDefault("IMAP_PORT", 993)

	if err := v.ReadInConfig(); err != nil {
		// A missing .env file is fine, the environment may carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading .env: %v", ErrInvalidConfiguration, err)
		}
	}

	v.AutomaticEnv()

	cfg := &Config{
		IMAP: IMAPConfig{
			Host:     v.GetString("IMAP_HOST"),
			Port:     v.GetInt("IMAP_PORT"),
			Username: v.GetString("IMAP_USERNAME"),
			Password: v.GetString("IMAP_PASSWORD"),
		},
		OCR: OCRConfig{
			APIKey:  v.GetString("MISTRAL_API_KEY"),
			BaseURL: v.GetString("MISTRAL_BASE_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required settings are present.
func (c *Config) Validate() error {
	var missing []string

	if c.IMAP.Host == "" {
		missing = append(missing, "IMAP_HOST")
	}
	if c.IMAP.Port <= 0 || c.IMAP.Port > 65535 {
		return fmt.Errorf("%w: IMAP_PORT must be between 1 and 65535, got %d", ErrInvalidConfiguration, c.IMAP.Port)
	}
	if c.IMAP.Username == "" {
		missing = append(missing, "IMAP_USERNAME")
	}
	if c.IMAP.Password == "" {
		missing = append(missing, "IMAP_PASSWORD")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrInvalidConfiguration, missing)
	}

	return nil
}

// RequireOCR checks that the OCR API key is configured. The mail tools work
// without it, so it is only validated by the operations that need it.
func (c *Config) RequireOCR() error {
	if c.OCR.APIKey == "" {
		return fmt.Errorf("%w: missing MISTRAL_API_KEY", ErrInvalidConfiguration)
	}
	return nil
}
